package env

import (
	"fmt"
	"strings"
)

type NamingConvention struct {
	prefix string
}

func NewNamingConvention(prefix string) *NamingConvention {
	return &NamingConvention{prefix: prefix}
}

// FlagToEnv converts flag name to ENV variable name
// for example "network-listen" -> "RESOLVER_NETWORK_LISTEN".
func (n *NamingConvention) FlagToEnv(flagName string) string {
	if len(flagName) == 0 {
		panic(fmt.Errorf("flag name cannot be empty"))
	}

	return n.prefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// Files returns names of the dotenv files, the first file has the highest priority.
func Files() []string {
	return []string{
		".env.local",
		".env",
	}
}
