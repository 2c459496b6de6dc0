package commsutil

import (
	"fmt"
	"strings"
)

// SubjectAgent is the request/reply subject the desktop agent serves its
// public surface on.
const SubjectAgent = "interop.agent.v1"

// sanitize makes a method name safe for use as a subject token.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, ">", "_")
}

// PlatformDiscoverSubject builds the discovery request subject for a platform.
func PlatformDiscoverSubject(platform string) string {
	return fmt.Sprintf("interop.%s.discover", platform)
}

// PlatformRegisterSubject builds the method-registration request subject for
// a platform.
func PlatformRegisterSubject(platform string) string {
	return fmt.Sprintf("interop.%s.register", platform)
}

// PlatformRegisteredSubject builds the subject a platform publishes
// method-registered events on.
func PlatformRegisteredSubject(platform string) string {
	return fmt.Sprintf("interop.%s.registered", platform)
}

// PlatformInvokeSubject builds the invocation subject for one method on a
// platform.
func PlatformInvokeSubject(platform, method string) string {
	return fmt.Sprintf("interop.%s.invoke.%s", platform, sanitize(method))
}
