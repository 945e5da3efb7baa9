package models

import "fmt"

// UserAgentMissingMessage is the exact text reported when no user agent is configured.
const UserAgentMissingMessage = "The file 'user_agent.txt' does not exist. Please create a file 'user_agent.txt' in the 'data' directory and enter your user agent."

// ConfigurationMissingError is returned when a required configuration source is absent.
type ConfigurationMissingError struct {
	Message string
}

func (e *ConfigurationMissingError) Error() string {
	return e.Message
}

// NetworkError reports a transport failure or a non-2xx response.
// StatusCode is zero for transport failures.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError reports a structural element missing from a fetched page,
// usually a sign that the upstream site layout changed.
type ParseError struct {
	URL     string
	Element string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: missing %s", e.URL, e.Element)
}

// SchoolDataUnavailableError reports that one school's row could not be built.
type SchoolDataUnavailableError struct {
	URN string
	Err error
}

func (e *SchoolDataUnavailableError) Error() string {
	return fmt.Sprintf("school data unavailable for URN %s: %v", e.URN, e.Err)
}

func (e *SchoolDataUnavailableError) Unwrap() error {
	return e.Err
}
