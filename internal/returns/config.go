package returns

import "time"

type Config struct {
	// EmployeePermit scopes which employees receive return notifications.
	EmployeePermit string
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmployeePermit: "tsGoodsReturn",
		Timeout:        30 * time.Second,
	}
}
