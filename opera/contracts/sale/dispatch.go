package sale

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-badge/inter"
)

// dispatch.go is the engine's call front end for hosts that deliver raw
// ABI-encoded call data instead of invoking the Go API directly. It parses
// the 4-byte method selector, unpacks the arguments and routes to the
// corresponding purchase entry point.

var (
	ErrMalformedInput = errors.New("malformed input: call data is truncated or does not match the method signature")
	ErrUnknownMethod  = errors.New("unknown method: selector does not match a public engine method")
	ErrArgOutOfRange  = errors.New("argument out of range: value does not fit the declared parameter width")
)

// ContractABI declares the public purchase surface:
//   - buyBadge(uint256 saleType, uint256 saleId, uint256 count) payable
//   - buyBadgeWithProof(uint256 saleType, uint256 saleId, uint256 count, bytes32[] proof) payable
const ContractABI = `[
	{"inputs":[{"internalType":"uint256","name":"saleType","type":"uint256"},{"internalType":"uint256","name":"saleId","type":"uint256"},{"internalType":"uint256","name":"count","type":"uint256"}],"name":"buyBadge","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"saleType","type":"uint256"},{"internalType":"uint256","name":"saleId","type":"uint256"},{"internalType":"uint256","name":"count","type":"uint256"},{"internalType":"bytes32[]","name":"proof","type":"bytes32[]"}],"name":"buyBadgeWithProof","outputs":[],"stateMutability":"payable","type":"function"}
]`

var (
	parsedABI abi.ABI

	// Method IDs are the first 4 bytes of the keccak256 hash of the
	// function signature, computed once at package initialization.
	buyBadgeMethodID          []byte
	buyBadgeWithProofMethodID []byte
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
	parsedABI = parsed

	for name, constID := range map[string]*[]byte{
		"buyBadge":          &buyBadgeMethodID,
		"buyBadgeWithProof": &buyBadgeWithProofMethodID,
	} {
		method, exist := parsedABI.Methods[name]
		if !exist {
			panic("unknown sale engine method")
		}
		*constID = make([]byte, len(method.ID))
		copy(*constID, method.ID)
	}
}

// Run executes an ABI-encoded call against the engine. The call envelope
// carries caller/origin/value exactly as for the direct Go API.
func (e *Engine) Run(call inter.Call, input []byte) error {
	if len(input) < 4 {
		return ErrMalformedInput
	}
	selector, args := input[:4], input[4:]

	switch {
	case equalSelector(selector, buyBadgeMethodID):
		kind, id, count, err := unpackPurchaseArgs("buyBadge", args)
		if err != nil {
			return err
		}
		return e.Purchase(call, kind, id, count)

	case equalSelector(selector, buyBadgeWithProofMethodID):
		kind, id, count, proof, err := unpackProofArgs(args)
		if err != nil {
			return err
		}
		return e.PurchaseWithProof(call, kind, id, count, proof)

	default:
		return ErrUnknownMethod
	}
}

func equalSelector(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// unpackPurchaseArgs decodes (saleType, saleId, count) and narrows each
// uint256 to its internal width.
func unpackPurchaseArgs(method string, args []byte) (inter.SaleKind, inter.SaleID, uint64, error) {
	values, err := parsedABI.Methods[method].Inputs.Unpack(args)
	if err != nil {
		return 0, 0, 0, ErrMalformedInput
	}
	return narrowPurchaseArgs(values[0], values[1], values[2])
}

// unpackProofArgs additionally decodes the bytes32[] proof.
func unpackProofArgs(args []byte) (inter.SaleKind, inter.SaleID, uint64, []common.Hash, error) {
	values, err := parsedABI.Methods["buyBadgeWithProof"].Inputs.Unpack(args)
	if err != nil {
		return 0, 0, 0, nil, ErrMalformedInput
	}
	kind, id, count, err := narrowPurchaseArgs(values[0], values[1], values[2])
	if err != nil {
		return 0, 0, 0, nil, err
	}

	raw, ok := values[3].([][32]byte)
	if !ok {
		return 0, 0, 0, nil, ErrMalformedInput
	}
	proof := make([]common.Hash, len(raw))
	for i, h := range raw {
		proof[i] = common.Hash(h)
	}
	return kind, id, count, proof, nil
}

func narrowPurchaseArgs(saleType, saleID, count interface{}) (inter.SaleKind, inter.SaleID, uint64, error) {
	kindBig, ok := saleType.(*big.Int)
	if !ok || !kindBig.IsUint64() || kindBig.Uint64() > 0xff {
		return 0, 0, 0, ErrArgOutOfRange
	}
	idBig, ok := saleID.(*big.Int)
	if !ok || !idBig.IsUint64() || idBig.Uint64() > 0xffffffff {
		return 0, 0, 0, ErrArgOutOfRange
	}
	countBig, ok := count.(*big.Int)
	if !ok || !countBig.IsUint64() {
		return 0, 0, 0, ErrArgOutOfRange
	}
	return inter.SaleKind(kindBig.Uint64()), inter.SaleID(idBig.Uint64()), countBig.Uint64(), nil
}
