package model

import "time"

// Library records are owned by the backend; the portal only routes and displays them.

// Book is a catalog entry.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn,omitempty"`
	AvailableCopies int    `json:"availableCopies"`
}

// BorrowRequestStatus is the server-owned lifecycle state of a borrow request.
type BorrowRequestStatus string

// BorrowRequest is a request to borrow or return a book.
type BorrowRequest struct {
	ID          string              `json:"id"`
	BookID      string              `json:"bookId"`
	UserID      string              `json:"userId"`
	Status      BorrowRequestStatus `json:"status"`
	RequestedAt time.Time           `json:"requestedAt"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
}

// Fine is an outstanding or settled penalty.
type Fine struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
	Paid   bool    `json:"paid"`
}

// Notification is a message addressed to the signed-in user.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the signed-in user's extended profile.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}
