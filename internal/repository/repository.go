package repository

import (
	"railbook/internal/database"
)

type Repositories struct {
	Catalog  *CatalogRepository
	Inventory *InventoryRepository
	Bookings *BookingRepository
	Waitlist *WaitlistRepository
	Users    *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Catalog:   NewCatalogRepository(db),
		Inventory: NewInventoryRepository(db),
		Bookings:  NewBookingRepository(db),
		Waitlist:  NewWaitlistRepository(db),
		Users:     NewUserRepository(db),
	}
}
