package commander

import "strings"

// splitNamespec splits "application:process" into its two components.
func splitNamespec(namespec string) (application, process string) {
	parts := strings.SplitN(namespec, ":", 2)
	if len(parts) != 2 {
		return namespec, ""
	}
	return parts[0], parts[1]
}
