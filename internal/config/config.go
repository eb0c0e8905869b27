// Package config loads and validates the TOML configuration file shared by
// the server and the admin CLI. Validation is done by hand against the raw
// document so every diagnostic names the dotted key that is wrong.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyError reports a missing required key or a value of the wrong type.
// Want is empty when the key is absent.
type KeyError struct {
	Key  string
	Want string
}

func (e *KeyError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("required key %s is missing", e.Key)
	}
	return fmt.Sprintf("key %s must be a %s", e.Key, e.Want)
}

type Config struct {
	Common Common
	API    API
	UI     UI
}

type Common struct {
	Port     uint16
	LogLevel string
	Socket   uint16
}

// API configures the surface the tablets talk to.
type API struct {
	URL       string
	SecretKey string
	DataDir   string
	SMTP      *SMTP // optional
	HWR       *HWR  // optional
}

type SMTP struct {
	Server   string
	Username string
	Password string
}

// HWR holds credentials for the handwriting-recognition upstream.
type HWR struct {
	ApplicationKey string
	HMAC           string
}

type UI struct {
	URL string
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return parse(raw)
}

// Parse validates a config document held in memory. Tests use this.
func Parse(doc string) (*Config, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return parse(raw)
}

func parse(raw map[string]interface{}) (*Config, error) {
	common, err := parseCommon(raw)
	if err != nil {
		return nil, err
	}
	api, err := parseAPI(raw)
	if err != nil {
		return nil, err
	}
	ui, err := parseUI(raw)
	if err != nil {
		return nil, err
	}
	return &Config{Common: *common, API: *api, UI: *ui}, nil
}

func parseCommon(raw map[string]interface{}) (*Common, error) {
	table, err := requireTable(raw, "COMMON")
	if err != nil {
		return nil, err
	}
	port, err := requirePort(table, "COMMON.PORT")
	if err != nil {
		return nil, err
	}
	loglevel, err := requireString(table, "COMMON.LOGLEVEL")
	if err != nil {
		return nil, err
	}
	socket, err := requirePort(table, "COMMON.SOCKET")
	if err != nil {
		return nil, err
	}
	return &Common{Port: port, LogLevel: loglevel, Socket: socket}, nil
}

func parseAPI(raw map[string]interface{}) (*API, error) {
	table, err := requireTable(raw, "API")
	if err != nil {
		return nil, err
	}
	url, err := requireString(table, "API.URL")
	if err != nil {
		return nil, err
	}
	secret, err := requireString(table, "API.SECRET_KEY")
	if err != nil {
		return nil, err
	}
	dataDir, err := requireString(table, "API.DATADIR")
	if err != nil {
		return nil, err
	}

	api := &API{URL: url, SecretKey: secret, DataDir: dataDir}

	if sub, ok := table["SMTP"]; ok {
		smtpTable, ok := sub.(map[string]interface{})
		if !ok {
			return nil, &KeyError{Key: "API.SMTP", Want: "table"}
		}
		server, err := requireString(smtpTable, "API.SMTP.SERVER")
		if err != nil {
			return nil, err
		}
		username, err := requireString(smtpTable, "API.SMTP.USERNAME")
		if err != nil {
			return nil, err
		}
		password, err := requireString(smtpTable, "API.SMTP.PASSWORD")
		if err != nil {
			return nil, err
		}
		api.SMTP = &SMTP{Server: server, Username: username, Password: password}
	}

	if sub, ok := table["HWR"]; ok {
		hwrTable, ok := sub.(map[string]interface{})
		if !ok {
			return nil, &KeyError{Key: "API.HWR", Want: "table"}
		}
		appKey, err := requireString(hwrTable, "API.HWR.APPLICATIONKEY")
		if err != nil {
			return nil, err
		}
		hmac, err := requireString(hwrTable, "API.HWR.HMAC")
		if err != nil {
			return nil, err
		}
		api.HWR = &HWR{ApplicationKey: appKey, HMAC: hmac}
	}

	return api, nil
}

func parseUI(raw map[string]interface{}) (*UI, error) {
	table, err := requireTable(raw, "UI")
	if err != nil {
		return nil, err
	}
	url, err := requireString(table, "UI.URL")
	if err != nil {
		return nil, err
	}
	if strings.Contains(url, "://") {
		return nil, fmt.Errorf("key UI.URL must not contain a protocol like http://")
	}
	return &UI{URL: url}, nil
}

func requireTable(raw map[string]interface{}, key string) (map[string]interface{}, error) {
	v, ok := raw[key]
	if !ok {
		return nil, &KeyError{Key: key}
	}
	table, ok := v.(map[string]interface{})
	if !ok {
		return nil, &KeyError{Key: key, Want: "table"}
	}
	return table, nil
}

func requireString(table map[string]interface{}, dotted string) (string, error) {
	v, ok := table[lastSegment(dotted)]
	if !ok {
		return "", &KeyError{Key: dotted}
	}
	s, ok := v.(string)
	if !ok {
		return "", &KeyError{Key: dotted, Want: "string"}
	}
	return s, nil
}

func requirePort(table map[string]interface{}, dotted string) (uint16, error) {
	v, ok := table[lastSegment(dotted)]
	if !ok {
		return 0, &KeyError{Key: dotted}
	}
	n, ok := v.(int64)
	if !ok {
		return 0, &KeyError{Key: dotted, Want: "integer"}
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("key %s must be a port between 1 and 65535, got %d", dotted, n)
	}
	return uint16(n), nil
}

func lastSegment(dotted string) string {
	if i := strings.LastIndex(dotted, "."); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
