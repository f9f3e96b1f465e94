package pkpass

// TransitType of a boarding pass.
type TransitType int

const (
	TransitGeneric TransitType = iota
	TransitAir
	TransitBoat
	TransitBus
	TransitTrain
)

var transitTypes = map[string]TransitType{
	"PKTransitTypeAir":   TransitAir,
	"PKTransitTypeBoat":  TransitBoat,
	"PKTransitTypeBus":   TransitBus,
	"PKTransitTypeTrain": TransitTrain,
}

func (t TransitType) String() string {
	switch t {
	case TransitAir:
		return "air"
	case TransitBoat:
		return "boat"
	case TransitBus:
		return "bus"
	case TransitTrain:
		return "train"
	default:
		return "generic"
	}
}

// BoardingPass is the boarding pass variant of a Document.
type BoardingPass struct {
	*Document
}

// TransitType defaults to TransitGeneric for absent or unknown values.
func (b *BoardingPass) TransitType() TransitType {
	return transitTypes[b.passData().str("transitType")]
}
