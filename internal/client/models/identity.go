package models

// Identity is the opaque id of the signed-in user. The zero value means
// anonymous.
type Identity string

const Anonymous Identity = ""

func (i Identity) IsAnonymous() bool { return i == Anonymous }

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return string(i)
}
