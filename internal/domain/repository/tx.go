package repository

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Products  ProductRepository
	Customers CustomerRepository
	Sales     SaleRepository
	Movements InventoryMovementRepository
}
