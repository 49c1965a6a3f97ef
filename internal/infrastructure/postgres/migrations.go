package postgres

// Migration is one schema change. Up and Down run in a single transaction each.
type Migration struct {
	Version int64
	Name    string
	Up      []string
	Down    []string
}

// Migrations lists every schema change in the order it is applied.
var Migrations = []Migration{
	{
		Version: 1615403000000,
		Name:    "CreateCustomers",
		Up: []string{
			`CREATE TABLE customers (
				id uuid PRIMARY KEY,
				name varchar NOT NULL,
				email varchar NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT customers_email_key UNIQUE (email)
			)`,
		},
		Down: []string{`DROP TABLE customers`},
	},
	{
		Version: 1615403100000,
		Name:    "CreateProducts",
		Up: []string{
			`CREATE TABLE products (
				id uuid PRIMARY KEY,
				name varchar NOT NULL,
				price decimal(10,2) NOT NULL CHECK (price >= 0),
				quantity integer NOT NULL CHECK (quantity >= 0),
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT products_name_key UNIQUE (name)
			)`,
		},
		Down: []string{`DROP TABLE products`},
	},
	{
		Version: 1615403200000,
		Name:    "CreateOrders",
		Up: []string{
			`CREATE TABLE orders (
				id uuid PRIMARY KEY,
				customer_id uuid NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT "OrderCustomer" FOREIGN KEY (customer_id) REFERENCES customers(id)
			)`,
		},
		Down: []string{`DROP TABLE orders`},
	},
	{
		Version: 1615403300000,
		Name:    "CreateOrdersProducts",
		Up: []string{
			`CREATE TABLE orders_products (
				id uuid PRIMARY KEY,
				price decimal(10,2) NOT NULL,
				quantity integer NOT NULL CHECK (quantity > 0),
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
		},
		Down: []string{`DROP TABLE orders_products`},
	},
	{
		Version: 1615406787136,
		Name:    "AddOrderIdOrdersProducts",
		Up: []string{
			`ALTER TABLE orders_products ADD COLUMN order_id uuid NOT NULL`,
			`ALTER TABLE orders_products ADD CONSTRAINT "OrdersOrdersProducts"
				FOREIGN KEY (order_id) REFERENCES orders(id)`,
		},
		Down: []string{
			`ALTER TABLE orders_products DROP CONSTRAINT "OrdersOrdersProducts"`,
			`ALTER TABLE orders_products DROP COLUMN order_id`,
		},
	},
	{
		Version: 1615407057888,
		Name:    "AddProductIdOrdersProducts",
		Up: []string{
			`ALTER TABLE orders_products ADD COLUMN product_id uuid NOT NULL`,
			`ALTER TABLE orders_products ADD CONSTRAINT "ProductsOrdersProducts"
				FOREIGN KEY (product_id) REFERENCES products(id)`,
		},
		Down: []string{
			`ALTER TABLE orders_products DROP CONSTRAINT "ProductsOrdersProducts"`,
			`ALTER TABLE orders_products DROP COLUMN product_id`,
		},
	},
}
