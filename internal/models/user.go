package models

// UserRecord is a user as stored under users/{id}. Grade values are kept in
// their raw textual form since the store may hold either numbers or strings.
type UserRecord struct {
	Identifier  string
	Password    string
	SchoolGrade *string
	MathGrade   *string
}

// RawGrade returns the grade field that should be parsed. schoolGrade wins
// whenever it is present, even if it later fails to parse.
func (u *UserRecord) RawGrade() (string, bool) {
	if u.SchoolGrade != nil {
		return *u.SchoolGrade, true
	}
	if u.MathGrade != nil {
		return *u.MathGrade, true
	}
	return "", false
}

// SessionIdentity is the verified player kept between login and play
type SessionIdentity struct {
	Identifier string
	Grade      int
}

// IsActive reports whether the identity is usable to start a round
func (s SessionIdentity) IsActive() bool {
	return s.Identifier != "" && s.Grade > 0
}
