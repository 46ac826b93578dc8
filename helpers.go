package bancheck

import (
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// hostPortRe accepts bare host:port and user:pass@host:port proxy forms.
var hostPortRe = regexp.MustCompile(`^(?:[^@\s/]+@)?[\w.-]+:\d{1,5}$`)

// validateProxyString checks a proxy endpoint syntactically and
// normalizes it to a schemed URL. It returns "" for endpoints that
// cannot be used; probes then run without a proxy.
// Parameters:
//   - endpoint: Raw proxy endpoint
//
// Returns:
//   - string: Normalized proxy URL, or ""
func validateProxyString(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}

	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			return ""
		}
		switch u.Scheme {
		case "http", "https", "socks5":
			return endpoint
		}
		return ""
	}

	if hostPortRe.MatchString(endpoint) {
		return "http://" + endpoint
	}

	return ""
}

// setDefaultValues sets default values for struct fields based on
// their "default" tags.
// Parameters:
//   - obj: Pointer to the struct to initialize
func setDefaultValues(obj interface{}) {
	tof := reflect.TypeOf(obj).Elem()
	vof := reflect.ValueOf(obj).Elem()

	for i := 0; i < vof.NumField(); i++ {
		vf := vof.Field(i)
		v := tof.Field(i).Tag.Get("default")

		if v == "" || !vf.IsZero() {
			continue
		}

		switch vf.Kind() {
		case reflect.String:
			vf.SetString(v)
		case reflect.Int:
			if intv, err := strconv.ParseInt(v, 10, 64); err == nil {
				vf.SetInt(intv)
			}
		case reflect.Float64:
			if fv, err := strconv.ParseFloat(v, 64); err == nil {
				vf.SetFloat(fv)
			}
		case reflect.Slice:
			if vf.Type().Elem().Kind() == reflect.String {
				values := strings.Split(v, ",")
				vf.Set(reflect.ValueOf(values))
			}
		}
	}
}

