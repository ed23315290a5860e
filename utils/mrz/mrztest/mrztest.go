// Package mrztest builds machine readable zones with correct check digits
// for use in tests.
package mrztest

import (
	"strconv"
	"strings"

	"github.com/Aashish23092/travel-document-verification/utils/mrz"
)

// Passport describes the data printed in a TD3 zone. Dates are YYMMDD.
type Passport struct {
	Type           string
	Issuer         string
	Surname        string
	GivenNames     string
	DocumentNumber string
	Nationality    string
	BirthDate      string
	Sex            string
	ExpiryDate     string
	PersonalNumber string
}

// TD3 returns the two 44-character lines of a passport zone
func TD3(p Passport) []string {
	docType := p.Type
	if docType == "" {
		docType = "P"
	}
	name := encode(p.Surname) + "<<" + encode(p.GivenNames)
	line1 := pad(docType, 2) + pad(p.Issuer, 3) + pad(name, 39)

	doc := pad(p.DocumentNumber, 9)
	personal := pad(p.PersonalNumber, 14)
	docPart := doc + digit(doc)
	birthPart := p.BirthDate + digit(p.BirthDate)
	expiryPart := p.ExpiryDate + digit(p.ExpiryDate)
	personalPart := personal + digit(personal)
	composite := digit(docPart + birthPart + expiryPart + personalPart)

	line2 := docPart + pad(p.Nationality, 3) + birthPart + pad(p.Sex, 1) + expiryPart + personalPart + composite
	return []string{line1, line2}
}

// Replace returns a copy of lines with the character at (line, pos) replaced
func Replace(lines []string, line, pos int, c byte) []string {
	out := append([]string(nil), lines...)
	b := []byte(out[line])
	b[pos] = c
	out[line] = string(b)
	return out
}

// OtherDigit returns a digit different from c
func OtherDigit(c byte) byte {
	if c < '0' || c > '9' {
		return '1'
	}
	return '0' + (c-'0'+1)%10
}

func digit(s string) string {
	d, err := mrz.CheckDigit(s)
	if err != nil {
		panic(err)
	}
	return strconv.Itoa(d)
}

func encode(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "<")
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat("<", n-len(s))
}
