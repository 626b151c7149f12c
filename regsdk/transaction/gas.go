package transaction

import (
	"github.com/holiman/uint256"
)

// Gas is the unit of gas consumed by an operation.
type Gas uint64

// Op names a billable operation for fee metering. Published op strings are
// frozen: renaming one silently breaks deployed fee schedules, so new
// operations get new names instead.
type Op string

// Costs maps operation names to their gas cost.
type Costs map[Op]Gas

// Op returns the cost of the given operation. Unknown operations cost zero.
func (c Costs) Op(op Op) Gas {
	return c[op]
}

// Fee is the fee attached to a transaction: the amount offered and the
// maximum gas the transaction may consume.
type Fee struct {
	Amount uint256.Int `cbor:"1,keyasint" json:"amount"`
	Gas    Gas         `cbor:"2,keyasint" json:"gas"`
}

// GasPrice returns the price the fee offers per unit of gas.
func (f *Fee) GasPrice() *uint256.Int {
	if f.Gas == 0 {
		return uint256.NewInt(0)
	}

	return new(uint256.Int).Div(&f.Amount, uint256.NewInt(uint64(f.Gas)))
}
