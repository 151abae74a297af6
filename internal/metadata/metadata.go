// Package metadata answers OpenSea-style token metadata requests.
package metadata

import (
	"sync/atomic"
)

// Defaults used when the configuration leaves a field empty.
const (
	DefaultNamePrefix  = "Crypto Dev #"
	DefaultDescription = "Crypto Dev is a collection of developers in crypto"
	DefaultImageBase   = "https://raw.githubusercontent.com/LearnWeb3DAO/NFT-Collection/main/my-app/public/cryptodevs/"
	DefaultImageExt    = ".svg"
)

// Document is the metadata returned for one token. Field order is part of
// the wire format.
type Document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Collection holds the strings a Document is built from.
type Collection struct {
	NamePrefix  string
	Description string
	ImageBase   string
	ImageExt    string
}

// DefaultCollection returns the Crypto Devs collection.
func DefaultCollection() Collection {
	return Collection{
		NamePrefix:  DefaultNamePrefix,
		Description: DefaultDescription,
		ImageBase:   DefaultImageBase,
		ImageExt:    DefaultImageExt,
	}
}

// WithDefaults fills empty fields from DefaultCollection.
func (c Collection) WithDefaults() Collection {
	d := DefaultCollection()
	if c.NamePrefix == "" {
		c.NamePrefix = d.NamePrefix
	}
	if c.Description == "" {
		c.Description = d.Description
	}
	if c.ImageBase == "" {
		c.ImageBase = d.ImageBase
	}
	if c.ImageExt == "" {
		c.ImageExt = d.ImageExt
	}
	return c
}

// Respond builds the document for tokenID. The identifier is not
// validated: an unknown or malformed ID yields a dead image link, never
// an error.
func (c Collection) Respond(tokenID string) Document {
	return Document{
		Name:        c.NamePrefix + tokenID,
		Description: c.Description,
		Image:       c.ImageBase + tokenID + c.ImageExt,
	}
}

// Respond builds the document for tokenID using DefaultCollection.
func Respond(tokenID string) Document {
	return DefaultCollection().Respond(tokenID)
}

// Responder serves documents from a collection that can be swapped at
// runtime.
type Responder struct {
	current atomic.Pointer[Collection]
}

// NewResponder returns a responder for c, with empty fields defaulted.
func NewResponder(c Collection) *Responder {
	r := &Responder{}
	r.Update(c)
	return r
}

// Respond builds the document for tokenID from the current collection.
func (r *Responder) Respond(tokenID string) Document {
	return r.current.Load().Respond(tokenID)
}

// Collection returns the current collection.
func (r *Responder) Collection() Collection {
	return *r.current.Load()
}

// Update replaces the collection used by subsequent requests.
func (r *Responder) Update(c Collection) {
	c = c.WithDefaults()
	r.current.Store(&c)
}
