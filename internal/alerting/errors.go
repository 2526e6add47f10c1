package alerting

import (
	"fmt"
	"time"
)

var timeNow = time.Now

func errAlertNotFound(id int64) error { return fmt.Errorf("alerting: alert %d not found", id) }
func errRuleNotFound(name string) error {
	return fmt.Errorf("alerting: rule %q not found", name)
}
