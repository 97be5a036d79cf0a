package models

// TransicionError marks an illegal state-machine transition. The boundary
// maps it to a 400 with the message in the error list.
type TransicionError struct {
	Mensaje string
}

func (e *TransicionError) Error() string { return e.Mensaje }
