package store

// Store bundles the three shared structures handed to the use cases.
type Store struct {
	Registry *Registry
	Seat     *Seat
	Record   *Record
}

func New() *Store {
	return &Store{
		Registry: NewRegistry(),
		Seat:     NewSeat(),
		Record:   NewRecord(),
	}
}
