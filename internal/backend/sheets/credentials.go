package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Credential methods, in priority order.
const (
	MethodEnvKey     = "GOOGLE_CLIENT_EMAIL + GOOGLE_PRIVATE_KEY"
	MethodEnvJSON    = "SERVICE_ACCOUNT_JSON"
	MethodFile       = "service account file"
	MethodClientOpts = "client options"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

// CredentialSource holds every place a service account can come from.
// The first populated source wins: email and key, then inline JSON, then
// the file.
type CredentialSource struct {
	ClientEmail        string
	PrivateKey         string // Literal "\n" sequences are converted to newlines
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Credentials is a resolved service account key.
type Credentials struct {
	Method      string
	ClientEmail string
	JSON        []byte
}

// LoadCredentials resolves src into a service account key.
// Every failure is reported as *core.AuthError.
func LoadCredentials(src CredentialSource) (Credentials, error) {
	switch {
	case src.ClientEmail != "" && src.PrivateKey != "":
		key := strings.ReplaceAll(src.PrivateKey, `\n`, "\n")
		b, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"client_email": src.ClientEmail,
			"private_key":  key,
			"token_uri":    defaultTokenURI,
		})
		if err != nil {
			return Credentials{}, &core.AuthError{Method: MethodEnvKey, Err: err}
		}
		return Credentials{Method: MethodEnvKey, ClientEmail: src.ClientEmail, JSON: b}, nil

	case src.ServiceAccountJSON != "":
		return parseServiceAccount(MethodEnvJSON, []byte(src.ServiceAccountJSON))

	case src.ServiceAccountFile != "":
		b, err := os.ReadFile(src.ServiceAccountFile)
		if err != nil {
			return Credentials{}, &core.AuthError{Method: MethodFile, Err: err}
		}
		return parseServiceAccount(MethodFile, b)

	default:
		return Credentials{}, &core.AuthError{Err: errors.New("no service account credentials configured")}
	}
}

func parseServiceAccount(method string, b []byte) (Credentials, error) {
	if !gjson.ValidBytes(b) {
		return Credentials{}, &core.AuthError{Method: method, Err: errors.New("service account is not valid JSON")}
	}

	fields := gjson.GetManyBytes(b, "client_email", "private_key")
	for i, name := range []string{"client_email", "private_key"} {
		if fields[i].String() == "" {
			return Credentials{}, &core.AuthError{Method: method, Err: fmt.Errorf("service account has no %s", name)}
		}
	}

	return Credentials{Method: method, ClientEmail: fields[0].String(), JSON: b}, nil
}
