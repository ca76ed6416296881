package directory

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
)

// uacAccountDisabled is the userAccountControl bit marking a disabled account.
const uacAccountDisabled = 0x0002

var userAttributes = []string{
	"objectGUID", "sAMAccountName", "displayName", "mail",
	"distinguishedName", "userAccountControl", "whenCreated", "whenChanged",
	"objectSid", "department", "title",
}

var groupAttributes = []string{
	"objectGUID", "cn", "displayName", "description",
	"distinguishedName", "member",
}

var ouAttributes = []string{"ou", "name", "distinguishedName"}

// entryToUser maps a directory entry to a User. Entries without a valid
// 16-byte binary identifier are dropped entirely, so every returned user
// carries a non-empty ID. Missing string attributes map to "", and a missing
// userAccountControl reads as disabled.
func entryToUser(entry *ldap.Entry) *User {
	id := DecodeGUIDBytes(entry.GetRawAttributeValue("objectGUID"))
	if id == "" {
		return nil
	}
	u := &User{
		ID:                id,
		Username:          entry.GetAttributeValue("sAMAccountName"),
		DisplayName:       entry.GetAttributeValue("displayName"),
		Email:             entry.GetAttributeValue("mail"),
		DistinguishedName: entry.DN,
	}
	if raw := entry.GetAttributeValue("userAccountControl"); raw != "" {
		if uac, err := strconv.ParseInt(raw, 10, 32); err == nil {
			u.Enabled = uac&uacAccountDisabled == 0
		}
	}
	if t, ok := ParseGeneralizedTime(entry.GetAttributeValue("whenCreated")); ok {
		u.CreatedAt = &t
	}
	if t, ok := ParseGeneralizedTime(entry.GetAttributeValue("whenChanged")); ok {
		u.ModifiedAt = &t
	}
	u.Attributes = extendedAttributes(entry)
	return u
}

// extendedAttributes collects the optional attributes carried alongside the
// typed fields, including the security identifier decoded to its textual form.
func extendedAttributes(entry *ldap.Entry) map[string]string {
	attrs := make(map[string]string)
	if sid := entry.GetRawAttributeValue("objectSid"); len(sid) >= 8 {
		attrs["objectSid"] = objectsid.Decode(sid).String()
	}
	for _, name := range []string{"department", "title"} {
		if v := entry.GetAttributeValue(name); v != "" {
			attrs[name] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// entryToGroup maps a directory entry to a Group under the same identifier
// contract as entryToUser.
func entryToGroup(entry *ldap.Entry) *Group {
	id := DecodeGUIDBytes(entry.GetRawAttributeValue("objectGUID"))
	if id == "" {
		return nil
	}
	members := entry.GetAttributeValues("member")
	if members == nil {
		members = []string{}
	}
	return &Group{
		ID:                id,
		Name:              entry.GetAttributeValue("cn"),
		DistinguishedName: entry.DN,
		Description:       entry.GetAttributeValue("description"),
		Members:           members,
	}
}

func entryToOU(entry *ldap.Entry) *OrganizationalUnit {
	name := entry.GetAttributeValue("ou")
	if name == "" {
		name = entry.GetAttributeValue("name")
	}
	return &OrganizationalUnit{
		Name:              name,
		DistinguishedName: entry.DN,
		ParentDN:          parentDN(entry.DN),
	}
}

// parentDN strips the leading RDN from a distinguished name, honoring
// escaped commas. The root of the tree has no parent.
func parentDN(dn string) string {
	for i := 0; i < len(dn); i++ {
		switch dn[i] {
		case '\\':
			i++
		case ',':
			return strings.TrimLeft(dn[i+1:], " ")
		}
	}
	return ""
}

// leadingCN extracts the value of a DN's first relative component when that
// component is a common name; otherwise it returns the raw component value.
func leadingCN(dn string) string {
	rdn := dn
loop:
	for i := 0; i < len(dn); i++ {
		switch dn[i] {
		case '\\':
			i++
		case ',':
			rdn = dn[:i]
			break loop
		}
	}
	if eq := strings.IndexByte(rdn, '='); eq >= 0 {
		return rdn[eq+1:]
	}
	return rdn
}
