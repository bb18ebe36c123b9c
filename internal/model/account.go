package model

import "time"

// Account represents a registered gallery user.  Username and Email are each
// unique across all accounts; the persistence layer enforces this with
// unique indexes so concurrent registrations cannot both succeed.
//
// Fields:
//  ID           – store identifier (ObjectID hex for Mongo, decimal id for MySQL).
//  Username     – unique login name.
//  Email        – unique, lower-cased address.
//  PasswordHash – bcrypt digest with the salt embedded; never serialized.
//  Avatar       – URL of the profile picture on the media host (optional).
type Account struct {
    ID           string    `json:"id"`
    Username     string    `json:"userName"`
    Email        string    `json:"email"`
    FirstName    string    `json:"firstName"`
    LastName     string    `json:"lastName"`
    PhoneNumber  string    `json:"phoneNumber"`
    Address      string    `json:"address"`
    Avatar       string    `json:"avatar,omitempty"`
    PasswordHash string    `json:"-"`
    CreatedAt    time.Time `json:"createdAt"`
    UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountPatch lists the profile fields a partial update may change.  A nil
// pointer leaves the stored value untouched.  Username and the password hash
// are not patchable.
type AccountPatch struct {
    FirstName   *string
    LastName    *string
    Email       *string
    PhoneNumber *string
    Address     *string
    Avatar      *string
}

// Empty reports whether the patch would change nothing.
func (p AccountPatch) Empty() bool {
    return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
        p.PhoneNumber == nil && p.Address == nil && p.Avatar == nil
}

// Apply copies the set fields of p onto a.
func (p AccountPatch) Apply(a *Account) {
    if p.FirstName != nil {
        a.FirstName = *p.FirstName
    }
    if p.LastName != nil {
        a.LastName = *p.LastName
    }
    if p.Email != nil {
        a.Email = *p.Email
    }
    if p.PhoneNumber != nil {
        a.PhoneNumber = *p.PhoneNumber
    }
    if p.Address != nil {
        a.Address = *p.Address
    }
    if p.Avatar != nil {
        a.Avatar = *p.Avatar
    }
}
