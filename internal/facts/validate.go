package facts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var factsValidate = validator.New()

// Validate rejects snapshots whose shape cannot be trusted further down the pipeline.
func Validate(snapshot map[string]DeviceFacts) error {
	hosts := make([]string, 0, len(snapshot))
	for host := range snapshot {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		df := snapshot[host]
		if err := factsValidate.Struct(df); err != nil {
			return toMalformed(host, err)
		}
		if df.Hostname != host {
			return &MalformedFactsError{
				Hostname: host,
				Reason:   fmt.Sprintf("reported hostname %q does not match %q", df.Hostname, host),
			}
		}
	}
	return nil
}

func toMalformed(host string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &MalformedFactsError{
			Hostname: host,
			Reason:   fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()),
		}
	}
	return &MalformedFactsError{Hostname: host, Reason: err.Error()}
}
