package bookeo

// Money is an amount as the provider represents it: decimal text plus an
// ISO currency code.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// Participant is one people-category count in a hold or booking.
type Participant struct {
	PeopleCategoryID string `json:"peopleCategoryId"`
	Number           int    `json:"number"`
}

// participantNumbers is the wire wrapper the provider expects around
// participant counts.
type participantNumbers struct {
	Numbers []Participant `json:"numbers"`
}

// ProductOption is a product-specific option choice attached to a hold or
// booking.
type ProductOption struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// Hold is a provisional, time-limited reservation of inventory. The
// provider owns its lifecycle: it either expires silently or is
// superseded by a confirmed booking.
type Hold struct {
	ID           string `json:"id"`
	Expiration   string `json:"expiration"`
	EventID      string `json:"eventId,omitempty"`
	ProductID    string `json:"productId,omitempty"`
	TotalPayable *Money `json:"totalPayable,omitempty"`
	Price        *Money `json:"price,omitempty"`
}

// Payment is a payment record attached to a booking.
type Payment struct {
	Amount             Money  `json:"amount"`
	PaymentMethod      string `json:"paymentMethod"`
	PaymentMethodOther string `json:"paymentMethodOther,omitempty"`
	ReceivedTime       string `json:"receivedTime"`
	Reason             string `json:"reason,omitempty"`
	Comment            string `json:"comment,omitempty"`
}

// Booking is a confirmed reservation.
type Booking struct {
	BookingNumber string `json:"bookingNumber"`
	EventID       string `json:"eventId,omitempty"`
	ProductID     string `json:"productId,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	StartTime     string `json:"startTime,omitempty"`
	EndTime       string `json:"endTime,omitempty"`
	CustomerID    string `json:"customerId,omitempty"`
	Title         string `json:"title,omitempty"`
	Canceled      bool   `json:"canceled,omitempty"`
	Price         *Money `json:"price,omitempty"`
}

// Slot is one bookable time slot returned by availability queries.
type Slot struct {
	EventID           string `json:"eventId,omitempty"`
	ProductID         string `json:"productId,omitempty"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	NumSeatsAvailable int    `json:"numSeatsAvailable,omitempty"`
	Price             *Money `json:"price,omitempty"`
}

// PhoneNumber is one customer phone entry.
type PhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// Customer is the provider's customer record.
type Customer struct {
	ID           string        `json:"id,omitempty"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	EmailAddress string        `json:"emailAddress,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers,omitempty"`
}

// Product, PeopleCategory, Language and Subaccount are provider settings
// records.
type Product struct {
	ID   string `json:"productId"`
	Name string `json:"name"`
}

type PeopleCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Language struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type Subaccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PageInfo carries the provider's pagination cursor state.
type PageInfo struct {
	TotalItems          int    `json:"totalItems"`
	TotalPages          int    `json:"totalPages"`
	CurrentPage         int    `json:"currentPage"`
	PageNavigationToken string `json:"pageNavigationToken,omitempty"`
}

// BookingsPage is one page of a bookings listing.
type BookingsPage struct {
	Data []Booking `json:"data"`
	Info PageInfo  `json:"info"`
}

// CustomersPage is one page of a customers listing.
type CustomersPage struct {
	Data []Customer `json:"data"`
	Info PageInfo   `json:"info"`
}

type slotList struct {
	Data []Slot `json:"data"`
}
