package utils

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var hashRegex = regexp.MustCompile("^[a-fA-F0-9]{40}$")

// ValidateHash checks that every hash is a 40 character hex info hash.
func ValidateHash(hashes []string) error {
	var invalid []string

	for _, hash := range hashes {
		if !hashRegex.MatchString(hash) {
			invalid = append(invalid, hash)
		}
	}

	if len(invalid) > 0 {
		return errors.Errorf("invalid hashes: %s", strings.Join(invalid, ","))
	}

	return nil
}
