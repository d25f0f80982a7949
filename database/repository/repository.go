package repository

import (
	"bloodsync/database"
	donationRepo "bloodsync/database/repository/donation"
	"bloodsync/database/repository/memory"
	notificationRepo "bloodsync/database/repository/notification"
	offerRepo "bloodsync/database/repository/offer"
	requestRepo "bloodsync/database/repository/request"
	userRepo "bloodsync/database/repository/user"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type (
	UserRepository         = userRepo.UserRepository
	RequestRepository      = requestRepo.RequestRepository
	OfferRepository        = offerRepo.OfferRepository
	DonationRepository     = donationRepo.DonationRepository
	NotificationRepository = notificationRepo.NotificationRepository
)

// Repositories bundles every collection plus the transaction runner that spans them.
type Repositories struct {
	Users         UserRepository
	Requests      RequestRepository
	Offers        OfferRepository
	Donations     DonationRepository
	Notifications NotificationRepository
	Tx            database.Transactor
}

// NewMongoRepositories builds the Mongo-backed repositories on db.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:         userRepo.NewMongoUserRepo(db),
		Requests:      requestRepo.NewMongoRequestRepo(db),
		Offers:        offerRepo.NewMongoOfferRepo(db),
		Donations:     donationRepo.NewMongoDonationRepo(db),
		Notifications: notificationRepo.NewMongoNotificationRepo(db),
		Tx:            database.NewMongoTransactor(db.Client()),
	}
}

// NewMemoryRepositories builds repositories over a fresh in-process store.
func NewMemoryRepositories() *Repositories {
	return NewStoreRepositories(memory.NewStore())
}

// NewStoreRepositories exposes an existing in-process store as repositories.
func NewStoreRepositories(store *memory.Store) *Repositories {
	return &Repositories{
		Users:         store.Users(),
		Requests:      store.Requests(),
		Offers:        store.Offers(),
		Donations:     store.Donations(),
		Notifications: store.Notifications(),
		Tx:            store,
	}
}
