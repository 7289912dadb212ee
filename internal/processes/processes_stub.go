//go:build !linux && !darwin

package processes

func listNative(uid int) ([]Process, error) {
	return nil, ErrUnsupported
}
