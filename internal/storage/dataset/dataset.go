// Package dataset decodes the embedded demo data used to seed storage.
package dataset

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/db"
	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

// Dataset is a complete set of shop records.
type Dataset struct {
	Products  []product.Product
	Customers []customer.Customer
	Users     []auth.User
	Orders    []order.Order
	Feedback  []feedback.Feedback
}

type rawDataset struct {
	Products  []product.Product `json:"products"`
	Customers []struct {
		customer.Customer
		Password string `json:"password"`
	} `json:"customers"`
	Users []struct {
		auth.User
		Password string `json:"password"`
	} `json:"users"`
	Orders   []order.Order       `json:"orders"`
	Feedback []feedback.Feedback `json:"feedback"`
}

// Demo decodes the embedded demo dataset, hashing the plain-text demo
// passwords with the given bcrypt cost.
func Demo(cost int) (*Dataset, error) {
	return Decode(db.Dataset, cost)
}

// Decode parses a dataset document.
func Decode(data []byte, cost int) (*Dataset, error) {
	var raw rawDataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode dataset")
	}

	ds := &Dataset{
		Products: raw.Products,
		Orders:   raw.Orders,
		Feedback: raw.Feedback,
	}
	for _, c := range raw.Customers {
		if c.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
			if err != nil {
				return nil, errors.Wrapf(err, "hash password for customer %s", c.ID)
			}
			c.PasswordHash = string(hash)
		}
		ds.Customers = append(ds.Customers, c.Customer)
	}
	for _, u := range raw.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, errors.Wrapf(err, "hash password for user %s", u.ID)
		}
		u.PasswordHash = string(hash)
		ds.Users = append(ds.Users, u.User)
	}
	for i := range ds.Orders {
		for j := range ds.Orders[i].Items {
			ds.Orders[i].Items[j].OrderID = ds.Orders[i].ID
		}
	}
	return ds, nil
}
