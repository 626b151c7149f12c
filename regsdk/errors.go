package regsdk

type SDKError string

func (e SDKError) Error() string {
	return string(e)
}

const ErrChainIDMismatch = SDKError("chain ID mismatch")
