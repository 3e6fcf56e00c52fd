package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Credentials authenticate against the document database.
type Credentials struct {
	Username string
	Password string
}

// CredentialsPath returns the password file location inside a data directory.
func CredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, ".password", "password.txt")
}

// LoadCredentials reads <dataDir>/.password/password.txt. The file is a small
// CSV: a header line naming the fields ("username,password") followed by one
// row of values.
func LoadCredentials(dataDir string) (Credentials, error) {
	path := CredentialsPath(dataDir)
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	return parseCredentials(f)
}

func parseCredentials(r io.Reader) (Credentials, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials header: %w", err)
	}
	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Credentials{}, errors.New("credentials file has no value row")
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials row: %w", err)
	}

	fields := make(map[string]string, len(header))
	for i, key := range header {
		if i < len(row) {
			fields[strings.ToLower(strings.TrimSpace(key))] = row[i]
		}
	}

	creds := Credentials{Username: fields["username"], Password: fields["password"]}
	if creds.Username == "" {
		return Credentials{}, errors.New("credentials file is missing username")
	}
	if creds.Password == "" {
		return Credentials{}, errors.New("credentials file is missing password")
	}
	return creds, nil
}
