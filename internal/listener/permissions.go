package listener

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Permission is a host permission the listeners depend on.
type Permission string

const (
	ReadSMS        Permission = "READ_SMS"
	ReceiveSMS     Permission = "RECEIVE_SMS"
	ReadPhoneState Permission = "READ_PHONE_STATE"
	ReadCallLog    Permission = "READ_CALL_LOG"
	ReadContacts   Permission = "READ_CONTACTS"
)

// Required lists every permission that must be granted before any listener
// is registered.
var Required = []Permission{ReadSMS, ReceiveSMS, ReadPhoneState, ReadCallLog, ReadContacts}

// Missing returns the required permissions absent from granted, in Required order.
func Missing(granted []Permission) []Permission {
	var out []Permission
	for _, p := range Required {
		if !slices.Contains(granted, p) {
			out = append(out, p)
		}
	}
	return out
}

// ParsePermissions normalizes permission names. An "android.permission."
// prefix is accepted.
func ParsePermissions(names []string) []Permission {
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		n = strings.TrimPrefix(n, "ANDROID.PERMISSION.")
		if n != "" {
			out = append(out, Permission(n))
		}
	}
	return out
}

type grantsFile struct {
	Granted []string `yaml:"granted"`
}

// LoadGrants reads the granted permission list from a YAML file. A missing
// file means nothing has been granted yet.
func LoadGrants(path string) ([]Permission, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listener: read grants %s: %w", path, err)
	}
	var f grantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("listener: parse grants %s: %w", path, err)
	}
	return ParsePermissions(f.Granted), nil
}
