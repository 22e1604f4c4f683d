package aot

import "fmt"

// BeanError reports a component that could not be created or looked up
type BeanError struct {
	Name    string
	Message string
	Cause   error
}

func (e *BeanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("component '%s': %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("component '%s': %s", e.Name, e.Message)
}

func (e *BeanError) Unwrap() error {
	return e.Cause
}

func newBeanError(name, message string, cause error) *BeanError {
	return &BeanError{Name: name, Message: message, Cause: cause}
}

// recovered converts a panic raised by Bean or Inner back into an error
func recovered(value interface{}) error {
	switch v := value.(type) {
	case *BeanError:
		return v
	case error:
		return fmt.Errorf("panic: %w", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}

// MissingMethod reports a destroy method the component does not provide
func MissingMethod(bean any, method string) error {
	return fmt.Errorf("%T has no callable %s method", bean, method)
}
