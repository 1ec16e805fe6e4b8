package favorites

// Optimistic runs a local mutation ahead of its remote call. apply performs
// the in-memory change and returns the inverse it captured; when the remote
// call fails, the inverse restores the prior state and the error is returned
// for the caller to surface. This generalizes to any list-valued remote
// resource, favorites being the one user in this service.
func Optimistic(apply func() (revert func()), call func() error) error {
	revert := apply()
	if err := call(); err != nil {
		if revert != nil {
			revert()
		}
		return err
	}
	return nil
}
