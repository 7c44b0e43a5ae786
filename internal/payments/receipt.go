package payments

import (
	"fmt"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// ReceiptGenerator produces the short, unique receipt references the gateway
// order-create call requires. Hashids over (user id, nanotime) keeps them
// non-guessable without another database round trip.
type ReceiptGenerator struct {
	h *hashids.HashID
}

func NewReceiptGenerator(salt string) (*ReceiptGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 12

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}

	return &ReceiptGenerator{h: h}, nil
}

func (g *ReceiptGenerator) Generate(userID int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{userID, time.Now().UnixNano()})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rcpt_%s", code), nil
}
