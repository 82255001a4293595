package jobkind

// Payload is implemented by every kind-specific payload struct. ClientKey
// partitions fairness/rate-limit buckets (§3, §4.5); CleanupFiles lists
// paths to unlink unconditionally once the job reaches a terminal state,
// regardless of outcome.
type Payload interface {
	ClientKey() string
	CleanupFiles() []string
}

// base is embedded by every concrete payload to carry the two fields every
// payload needs, so each kind only declares what's specific to it.
type base struct {
	Client  string
	Cleanup []string
}

func (b base) ClientKey() string      { return b.Client }
func (b base) CleanupFiles() []string { return b.Cleanup }

func newBase(clientKey string, cleanup ...string) base {
	return base{Client: clientKey, Cleanup: cleanup}
}

type MergePayload struct {
	base
	InputPaths []string
}

func NewMergePayload(clientKey string, inputs []string) *MergePayload {
	return &MergePayload{base: newBase(clientKey, inputs...), InputPaths: inputs}
}

// SplitMode selects how Split partitions the input's pages.
type SplitMode string

const (
	SplitRange  SplitMode = "range"
	SplitEveryN SplitMode = "every-n"
	SplitPages  SplitMode = "pages"
)

type SplitPayload struct {
	base
	InputPath string
	Mode      SplitMode
	Spec      string
	EveryN    int
}

func NewSplitPayload(clientKey, input string, mode SplitMode, spec string, everyN int) *SplitPayload {
	return &SplitPayload{base: newBase(clientKey, input), InputPath: input, Mode: mode, Spec: spec, EveryN: everyN}
}

// CompressPreset is one of the three named quality presets.
type CompressPreset string

const (
	PresetSmallest CompressPreset = "smallest"
	PresetBalanced CompressPreset = "balanced"
	PresetHigh     CompressPreset = "high"
)

type CompressPayload struct {
	base
	InputPath string
	Preset    CompressPreset
}

func NewCompressPayload(clientKey, input string, preset CompressPreset) *CompressPayload {
	return &CompressPayload{base: newBase(clientKey, input), InputPath: input, Preset: preset}
}

type ProtectPayload struct {
	base
	InputPath string
	Password  string
}

func NewProtectPayload(clientKey, input, password string) *ProtectPayload {
	return &ProtectPayload{base: newBase(clientKey, input), InputPath: input, Password: password}
}

type UnlockPayload struct {
	base
	InputPath string
	Password  string
}

func NewUnlockPayload(clientKey, input, password string) *UnlockPayload {
	return &UnlockPayload{base: newBase(clientKey, input), InputPath: input, Password: password}
}

type RemovePagesPayload struct {
	base
	InputPath string
	Spec      string
}

func NewRemovePagesPayload(clientKey, input, spec string) *RemovePagesPayload {
	return &RemovePagesPayload{base: newBase(clientKey, input), InputPath: input, Spec: spec}
}

type RotatePayload struct {
	base
	InputPath string
	Angle     int
	Spec      string
}

func NewRotatePayload(clientKey, input string, angle int, spec string) *RotatePayload {
	return &RotatePayload{base: newBase(clientKey, input), InputPath: input, Angle: angle, Spec: spec}
}

type OrganizePayload struct {
	base
	InputPath string
	Order     []int
}

func NewOrganizePayload(clientKey, input string, order []int) *OrganizePayload {
	return &OrganizePayload{base: newBase(clientKey, input), InputPath: input, Order: order}
}

// CropUnit selects whether crop margins are in points or percent of page size.
type CropUnit string

const (
	CropPoints  CropUnit = "pt"
	CropPercent CropUnit = "percent"
)

type CropPayload struct {
	base
	InputPath                          string
	Unit                                CropUnit
	Top, Bottom, Left, Right            float64
}

func NewCropPayload(clientKey, input string, unit CropUnit, top, bottom, left, right float64) *CropPayload {
	return &CropPayload{base: newBase(clientKey, input), InputPath: input, Unit: unit, Top: top, Bottom: bottom, Left: left, Right: right}
}

// OfficeConvertPayload covers to-word/to-excel/to-ppt (PDF -> office) jobs.
type OfficeConvertPayload struct {
	base
	InputPath string
	Target    Kind // ToWord, ToExcel, or ToPPT
}

func NewOfficeConvertPayload(clientKey, input string, target Kind) *OfficeConvertPayload {
	return &OfficeConvertPayload{base: newBase(clientKey, input), InputPath: input, Target: target}
}

// OfficeImportPayload covers from-word/from-excel/from-ppt (office -> PDF) jobs.
type OfficeImportPayload struct {
	base
	InputPath string
	Source    Kind // FromWord, FromExcel, or FromPPT
}

func NewOfficeImportPayload(clientKey, input string, source Kind) *OfficeImportPayload {
	return &OfficeImportPayload{base: newBase(clientKey, input), InputPath: input, Source: source}
}

type FromHTMLPayload struct {
	base
	HTML string
}

func NewFromHTMLPayload(clientKey, html string, cleanup ...string) *FromHTMLPayload {
	return &FromHTMLPayload{base: newBase(clientKey, cleanup...), HTML: html}
}

// RepairMethod is one of the three repair strategies.
type RepairMethod string

const (
	RepairQuick RepairMethod = "quick"
	RepairDeep  RepairMethod = "deep"
	RepairAuto  RepairMethod = "auto"
)

type RepairPayload struct {
	base
	InputPath string
	Method    RepairMethod
}

func NewRepairPayload(clientKey, input string, method RepairMethod) *RepairPayload {
	return &RepairPayload{base: newBase(clientKey, input), InputPath: input, Method: method}
}

type WatermarkPayload struct {
	base
	InputPath  string
	Text       string
	Opacity    float64
	FontSizePt float64
}

func NewWatermarkPayload(clientKey, input, text string, opacity, fontSizePt float64) *WatermarkPayload {
	return &WatermarkPayload{base: newBase(clientKey, input), InputPath: input, Text: text, Opacity: opacity, FontSizePt: fontSizePt}
}

type CVEntry struct {
	Title       string
	Organization string
	Start       string
	End         string
	Description string
}

type CVGeneratePayload struct {
	base
	FullName   string
	Email      string
	Phone      string
	Location   string
	Summary    string
	Experience []CVEntry
	Education  []CVEntry
	Skills     []string
	Language   string
}

func NewCVGeneratePayload(clientKey string, p CVGeneratePayload) *CVGeneratePayload {
	p.base = newBase(clientKey)
	return &p
}
