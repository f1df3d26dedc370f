package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"products.read","orders.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"admin-dashboard": {
		ID:      "admin-dashboard",
		Secret:  "admin-dashboard-secret",
		Perms:   []string{"products.read", "products.write", "orders.read", "orders.write"},
		Enabled: true,
	},
	"svc-storefront": {
		ID:      "svc-storefront",
		Secret:  "storefront-secret",
		Perms:   []string{"products.read", "orders.read", "orders.write"},
		Enabled: true,
	},
	"svc-reporting": {
		ID:      "svc-reporting",
		Secret:  "reporting-secret",
		Perms:   []string{"products.read", "orders.read"},
		Enabled: true,
	},
}
