package validation

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 8

// ErrPasswordTooShort is returned for passwords below MinPasswordLen.
var ErrPasswordTooShort = fmt.Errorf(
	"this password is too short. It must contain at least %d characters", MinPasswordLen)

// ErrPasswordTooCommon is returned for passwords found in the common
// password denylist.
var ErrPasswordTooCommon = errors.New("this password is too common")

//go:embed common_passwords.txt
var commonPasswordsRaw []byte

var (
	commonPasswords     map[string]struct{}
	commonPasswordsOnce sync.Once
)

func loadCommonPasswords() {
	commonPasswords = make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(commonPasswordsRaw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commonPasswords[line] = struct{}{}
	}
}

// ValidatePassword enforces the password strength policy: a minimum
// length and absence from the common-password denylist. The checks are
// independent; each failure carries its own message.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}

	if IsCommonPassword(password) {
		return ErrPasswordTooCommon
	}

	return nil
}

// IsCommonPassword reports whether password appears in the embedded
// denylist. Matching is case-insensitive, same as the list itself.
func IsCommonPassword(password string) bool {
	commonPasswordsOnce.Do(loadCommonPasswords)
	_, found := commonPasswords[strings.ToLower(password)]
	return found
}
