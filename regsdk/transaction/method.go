package transaction

import (
	"fmt"
	"strings"
	"sync"
)

// MethodSeparator separates the module name from the method verb.
const MethodSeparator = "."

// MethodName names a remote procedure. Method names are globally unique
// within the method namespace and follow the "<module>.<VerbNoun>" convention.
type MethodName string

// SanityCheck validates the method name shape.
func (m MethodName) SanityCheck() error {
	if len(m) == 0 {
		return ErrEmptyMethod
	}

	if strings.ContainsAny(string(m), " \t\n") {
		return fmt.Errorf("%w: '%s'", ErrMalformedMethod, string(m))
	}

	if !strings.Contains(string(m), MethodSeparator) {
		return fmt.Errorf("%w: '%s'", ErrMalformedMethod, string(m))
	}

	return nil
}

// Module returns the module namespace prefix of the method name.
func (m MethodName) Module() string {
	name := string(m)
	if idx := strings.Index(name, MethodSeparator); idx >= 0 {
		return name[:idx]
	}

	return name
}

var (
	methodsMu sync.Mutex
	methods   = make(map[MethodName]struct{})
)

// NewMethodName constructs and registers a method name under the given module
// namespace. Registering the same method twice panics at init time: the
// method namespace is a cross-process contract and must stay unambiguous.
func NewMethodName(module, method string) MethodName {
	name := MethodName(module + MethodSeparator + method)
	if err := name.SanityCheck(); err != nil {
		panic(err)
	}

	methodsMu.Lock()
	defer methodsMu.Unlock()

	if _, ok := methods[name]; ok {
		panic(fmt.Sprintf("transaction: method already registered: '%s'", name))
	}

	methods[name] = struct{}{}

	return name
}

// IsRegisteredMethod reports whether the method name has been registered.
func IsRegisteredMethod(name MethodName) bool {
	methodsMu.Lock()
	defer methodsMu.Unlock()

	_, ok := methods[name]

	return ok
}
