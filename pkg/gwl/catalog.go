package gwl

// Kind identifies one instruction type in the GWL command catalog.
type Kind int

// The full catalog. Structural kinds come first; the rest follow the
// DeScribe language reference grouping. KindInvalid is the zero value so an
// uninitialized Instruction is recognizable.
const (
	KindInvalid Kind = iota
	KindUnknown
	KindComment
	KindEmpty

	// Writing modes
	KindPiezoScanMode
	KindStageScanMode
	KindGalvoScanMode
	KindPulsedMode
	KindContinuousMode
	KindLogMode
	KindConnectPointsOn
	KindConnectPointsOff

	// Writing parameters
	KindPowerScaling
	KindLaserPower
	KindPointDistance
	KindUpdateRate
	KindScanSpeed
	KindExposureTime
	KindSettlingTime
	KindPiezoSettlingTime
	KindGalvoSettlingTime
	KindLineStartMode
	KindLineNumber
	KindLineDistance
	KindPolyLineMode
	KindPowerValues
	KindPowerValuesOn
	KindPowerValuesOff
	KindMeanderOn
	KindMeanderOff
	KindWait
	KindWrite
	KindGalvoAcceleration

	// Positioning
	KindXOffset
	KindYOffset
	KindZOffset
	KindPiezoXOffset
	KindPiezoYOffset
	KindPiezoZOffset
	KindGalvoXOffset
	KindGalvoYOffset
	KindGalvoZOffset
	KindMoveStageX
	KindMoveStageY
	KindGotoX
	KindGotoY
	KindStageGotoX
	KindStageGotoY
	KindPiezoGotoX
	KindPiezoGotoY
	KindPiezoGotoZ
	KindCenterStage
	KindAddZDrivePosition

	// PerfectShape and power profiles
	KindPerfectShape
	KindPerfectShapeOff
	KindPerfectShapeQuality
	KindPerfectShapeIntermediate
	KindPerfectShapeFast
	KindPsLoadPowerProfiles
	KindPsPowerProfiles
	KindPsPowerSlope
	KindStageVelocity

	// Control flow and variables
	KindInclude
	KindRepeat
	KindVar
	KindLocal
	KindSet
	KindIf
	KindElif
	KindElse
	KindEnd
	KindFor
	KindWhile
	KindBreak
	KindContinue

	// Relative parameter adjustment
	KindAddScanSpeed
	KindAddLaserPower
	KindAddExposureTime
	KindAddPowerScaling
	KindAddLineNumber
	KindAddLineDistance
	KindAddXOffset
	KindAddYOffset
	KindAddZOffset
	KindAddDefocus
	KindAddUpdateRate
	KindAddPointDistance
	KindMultScanSpeed
	KindMultLaserPower
	KindMultExposureTime
	KindMultPowerScaling
	KindMultLineNumber
	KindMultLineDistance
	KindMultXOffset
	KindMultYOffset
	KindMultZOffset
	KindMultDefocus
	KindMultUpdateRate
	KindMultPointDistance

	// Text printing
	KindWriteText
	KindTextPositionX
	KindTextPositionY
	KindTextPositionZ
	KindLineSpacingX
	KindLineSpacingY
	KindLineSpacingZ
	KindTextLaserPower
	KindTextPointDistance
	KindTextScanSpeed
	KindTextFontSize

	// Correction features
	KindDefocusFactor
	KindMeasureTilt
	KindTiltCorrectionOn
	KindTiltCorrectionOff
	KindManualTiltX
	KindManualTiltY
	KindAccelerationTime
	KindDecelerationTime
	KindAcceleration
	KindDeceleration

	// Autofocus
	KindFindInterfaceAt
	KindInterfaceMax
	KindInterfaceMin
	KindResetInterface
	KindInterfacePosition
	KindInterfaceAccuracyHigh
	KindInterfaceAccuracyDefault
	KindInterfaceAccuracyLow

	// Initialization
	KindSamplePosition
	KindChooseObjective
	KindInvertZAxis

	// Protocol and logging
	KindCapturePhoto
	KindTimeStampOn
	KindTimeStampOff
	KindMessageOut
	KindDebugModeOn
	KindDebugModeOff
	KindShowParameter
	KindShowVar
	KindSaveMessages
	KindPause
	KindZDrivePosition
	KindNewStructure

	// Maintenance
	KindManualControl
	KindReloadIni
	KindRecalibrate

	kindCount // sentinel, keep last
)

// specs is the closed registry: one entry per kind. Completeness and
// keyword uniqueness are enforced by init in registry.go.
var specs = map[Kind]Spec{
	KindUnknown: {Keyword: ""},
	KindComment: {Keyword: CommentChar},
	KindEmpty:   {Keyword: ""},

	KindPiezoScanMode:    {Keyword: "PiezoScanMode", Arg: ArgNone},
	KindStageScanMode:    {Keyword: "StageScanMode", Arg: ArgNone},
	KindGalvoScanMode:    {Keyword: "GalvoScanMode", Arg: ArgNone},
	KindPulsedMode:       {Keyword: "PulsedMode", Arg: ArgNone},
	KindContinuousMode:   {Keyword: "ContinuousMode", Arg: ArgNone},
	KindLogMode:          {Keyword: "LogMode", Arg: ArgNone},
	KindConnectPointsOn:  {Keyword: "ConnectPointsOn", Arg: ArgNone},
	KindConnectPointsOff: {Keyword: "ConnectPointsOff", Arg: ArgNone},

	KindPowerScaling:      {Keyword: "PowerScaling", Arg: ArgFloat, DefFloat: 1.0},
	KindLaserPower:        {Keyword: "LaserPower", Arg: ArgFloat, DefFloat: 100.0},
	KindPointDistance:     {Keyword: "PointDistance", Arg: ArgFloat, DefFloat: 100.0},
	KindUpdateRate:        {Keyword: "UpdateRate", Arg: ArgInt, DefInt: 1000},
	KindScanSpeed:         {Keyword: "ScanSpeed", Arg: ArgFloat, DefFloat: 10000.0},
	KindExposureTime:      {Keyword: "ExposureTime", Arg: ArgFloat, DefFloat: 50.0},
	KindSettlingTime:      {Keyword: "SettlingTime", Arg: ArgFloat, DefFloat: 1.0},
	KindPiezoSettlingTime: {Keyword: "PiezoSettlingTime", Arg: ArgFloat, DefFloat: 100.0},
	KindGalvoSettlingTime: {Keyword: "GalvoSettlingTime", Arg: ArgFloat, DefFloat: 2.0},
	KindLineStartMode:     {Keyword: "LineStartMode", Arg: ArgInt, DefInt: 1},
	KindLineNumber:        {Keyword: "LineNumber", Arg: ArgInt, DefInt: 1},
	KindLineDistance:      {Keyword: "LineDistance", Arg: ArgInt, DefInt: 100},
	KindPolyLineMode:      {Keyword: "PolyLineMode", Arg: ArgInt, DefInt: 2},
	KindPowerValues:       {Keyword: "PowerValues", Arg: ArgNone},
	KindPowerValuesOn:     {Keyword: "PowerValuesOn", Arg: ArgNone},
	KindPowerValuesOff:    {Keyword: "PowerValuesOff", Arg: ArgNone},
	KindMeanderOn:         {Keyword: "MeanderOn", Arg: ArgNone},
	KindMeanderOff:        {Keyword: "MeanderOff", Arg: ArgNone},
	KindWait:              {Keyword: "Wait", Arg: ArgInt, DefInt: 1},
	KindWrite:             {Keyword: "Write", Arg: ArgNone},
	KindGalvoAcceleration: {Keyword: "GalvoAcceleration", Arg: ArgFloat, DefFloat: 1.0},

	KindXOffset:           {Keyword: "XOffset", Arg: ArgFloat},
	KindYOffset:           {Keyword: "YOffset", Arg: ArgFloat},
	KindZOffset:           {Keyword: "ZOffset", Arg: ArgFloat},
	KindPiezoXOffset:      {Keyword: "PiezoXOffset", Arg: ArgFloat},
	KindPiezoYOffset:      {Keyword: "PiezoYOffset", Arg: ArgFloat},
	KindPiezoZOffset:      {Keyword: "PiezoZOffset", Arg: ArgFloat},
	KindGalvoXOffset:      {Keyword: "GalvoXOffset", Arg: ArgFloat},
	KindGalvoYOffset:      {Keyword: "GalvoYOffset", Arg: ArgFloat},
	KindGalvoZOffset:      {Keyword: "GalvoZOffset", Arg: ArgFloat},
	KindMoveStageX:        {Keyword: "MoveStageX", Arg: ArgFloat},
	KindMoveStageY:        {Keyword: "MoveStageY", Arg: ArgFloat},
	KindGotoX:             {Keyword: "GotoX", Arg: ArgFloat},
	KindGotoY:             {Keyword: "GotoY", Arg: ArgFloat},
	KindStageGotoX:        {Keyword: "StageGotoX", Arg: ArgFloat},
	KindStageGotoY:        {Keyword: "StageGotoY", Arg: ArgFloat},
	KindPiezoGotoX:        {Keyword: "PiezoGotoX", Arg: ArgFloat},
	KindPiezoGotoY:        {Keyword: "PiezoGotoY", Arg: ArgFloat},
	KindPiezoGotoZ:        {Keyword: "PiezoGotoZ", Arg: ArgFloat},
	KindCenterStage:       {Keyword: "CenterStage", Arg: ArgNone},
	KindAddZDrivePosition: {Keyword: "AddZDrivePosition", Arg: ArgFloat},

	KindPerfectShape:             {Keyword: "PerfectShape", Arg: ArgInt, DefInt: 2},
	KindPerfectShapeOff:          {Keyword: "PerfectShapeOff", Arg: ArgNone},
	KindPerfectShapeQuality:      {Keyword: "PerfectShapeQuality", Arg: ArgNone},
	KindPerfectShapeIntermediate: {Keyword: "PerfectShapeIntermediate", Arg: ArgNone},
	KindPerfectShapeFast:         {Keyword: "PerfectShapeFast", Arg: ArgNone},
	KindPsLoadPowerProfiles:      {Keyword: "PsLoadPowerProfiles", Arg: ArgRaw, DefText: "IP Resist"},
	KindPsPowerProfiles:          {Keyword: "PsPowerProfiles", Arg: ArgRaw, DefText: "IP Resist"},
	KindPsPowerSlope:             {Keyword: "PsPowerSlope", Arg: ArgFloat, DefFloat: 1.0},
	KindStageVelocity:            {Keyword: "StageVelocity", Arg: ArgInt, DefInt: 200},

	KindInclude:  {Keyword: "include", Arg: ArgPath},
	KindRepeat:   {Keyword: "repeat", Arg: ArgInt, DefInt: 1},
	KindVar:      {Keyword: "var", Arg: ArgAssign, DefText: "$var"},
	KindLocal:    {Keyword: "local", Arg: ArgAssign, DefText: "$var"},
	KindSet:      {Keyword: "set", Arg: ArgAssign, DefText: "$var"},
	KindIf:       {Keyword: "if", Arg: ArgRaw, DefText: "0 == 0"},
	KindElif:     {Keyword: "elif", Arg: ArgRaw, DefText: "0 == 0"},
	KindElse:     {Keyword: "else", Arg: ArgNone},
	KindEnd:      {Keyword: "end", Arg: ArgNone},
	KindFor:      {Keyword: "for", Arg: ArgRaw, DefText: "$i = $a to $b step $s"},
	KindWhile:    {Keyword: "while", Arg: ArgRaw, DefText: "$i = $a to $b step $s"},
	KindBreak:    {Keyword: "break", Arg: ArgNone},
	KindContinue: {Keyword: "continue", Arg: ArgNone},

	KindAddScanSpeed:      {Keyword: "AddScanSpeed", Arg: ArgFloat},
	KindAddLaserPower:     {Keyword: "AddLaserPower", Arg: ArgFloat},
	KindAddExposureTime:   {Keyword: "AddExposureTime", Arg: ArgFloat},
	KindAddPowerScaling:   {Keyword: "AddPowerScaling", Arg: ArgFloat},
	KindAddLineNumber:     {Keyword: "AddLineNumber", Arg: ArgFloat},
	KindAddLineDistance:   {Keyword: "AddLineDistance", Arg: ArgFloat},
	KindAddXOffset:        {Keyword: "AddXOffset", Arg: ArgFloat},
	KindAddYOffset:        {Keyword: "AddYOffset", Arg: ArgFloat},
	KindAddZOffset:        {Keyword: "AddZOffset", Arg: ArgFloat},
	KindAddDefocus:        {Keyword: "AddDefocus", Arg: ArgFloat},
	KindAddUpdateRate:     {Keyword: "AddUpdateRate", Arg: ArgFloat},
	KindAddPointDistance:  {Keyword: "AddPointDistance", Arg: ArgFloat},
	KindMultScanSpeed:     {Keyword: "MultScanSpeed", Arg: ArgFloat, DefFloat: 1.0},
	KindMultLaserPower:    {Keyword: "MultLaserPower", Arg: ArgFloat, DefFloat: 1.0},
	KindMultExposureTime:  {Keyword: "MultExposureTime", Arg: ArgFloat, DefFloat: 1.0},
	KindMultPowerScaling:  {Keyword: "MultPowerScaling", Arg: ArgFloat, DefFloat: 1.0},
	KindMultLineNumber:    {Keyword: "MultLineNumber", Arg: ArgFloat, DefFloat: 1.0},
	KindMultLineDistance:  {Keyword: "MultLineDistance", Arg: ArgFloat, DefFloat: 1.0},
	KindMultXOffset:       {Keyword: "MultXOffset", Arg: ArgFloat, DefFloat: 1.0},
	KindMultYOffset:       {Keyword: "MultYOffset", Arg: ArgFloat, DefFloat: 1.0},
	KindMultZOffset:       {Keyword: "MultZOffset", Arg: ArgFloat, DefFloat: 1.0},
	KindMultDefocus:       {Keyword: "MultDefocus", Arg: ArgFloat, DefFloat: 1.0},
	KindMultUpdateRate:    {Keyword: "MultUpdateRate", Arg: ArgFloat, DefFloat: 1.0},
	KindMultPointDistance: {Keyword: "MultPointDistance", Arg: ArgFloat, DefFloat: 1.0},

	KindWriteText:         {Keyword: "WriteText", Arg: ArgQuoted},
	KindTextPositionX:     {Keyword: "TextPositionX", Arg: ArgFloat, DefFloat: 1.0},
	KindTextPositionY:     {Keyword: "TextPositionY", Arg: ArgFloat, DefFloat: 1.0},
	KindTextPositionZ:     {Keyword: "TextPositionZ", Arg: ArgFloat, DefFloat: 1.0},
	KindLineSpacingX:      {Keyword: "LineSpacingX", Arg: ArgFloat, DefFloat: 10.0},
	KindLineSpacingY:      {Keyword: "LineSpacingY", Arg: ArgFloat, DefFloat: 10.0},
	KindLineSpacingZ:      {Keyword: "LineSpacingZ", Arg: ArgFloat, DefFloat: 10.0},
	KindTextLaserPower:    {Keyword: "TextLaserPower", Arg: ArgFloat, DefFloat: 100.0},
	KindTextPointDistance: {Keyword: "TextPointDistance", Arg: ArgFloat, DefFloat: 50.0},
	KindTextScanSpeed:     {Keyword: "TextScanSpeed", Arg: ArgFloat, DefFloat: 10000.0},
	KindTextFontSize:      {Keyword: "TextFontSize", Arg: ArgFloat, DefFloat: 10000.0},

	KindDefocusFactor:     {Keyword: "DefocusFactor", Arg: ArgFloat, DefFloat: 1.0},
	KindMeasureTilt:       {Keyword: "MeasureTilt", Arg: ArgInt, DefInt: 5},
	KindTiltCorrectionOn:  {Keyword: "TiltCorrectionOn", Arg: ArgNone},
	KindTiltCorrectionOff: {Keyword: "TiltCorrectionOff", Arg: ArgNone},
	KindManualTiltX:       {Keyword: "ManualTiltX", Arg: ArgFloat, DefFloat: 5.0},
	KindManualTiltY:       {Keyword: "ManualTiltY", Arg: ArgFloat, DefFloat: 5.0},
	KindAccelerationTime:  {Keyword: "AccelerationTime", Arg: ArgFloat, DefFloat: 5.0},
	KindDecelerationTime:  {Keyword: "DecelerationTime", Arg: ArgFloat, DefFloat: 5.0},
	KindAcceleration:      {Keyword: "Acceleration", Arg: ArgFloat, DefFloat: 5.0},
	KindDeceleration:      {Keyword: "Deceleration", Arg: ArgInt, DefInt: 5},

	KindFindInterfaceAt:          {Keyword: "FindInterfaceAt", Arg: ArgFloat},
	KindInterfaceMax:             {Keyword: "InterfaceMax", Arg: ArgFloat},
	KindInterfaceMin:             {Keyword: "InterfaceMin", Arg: ArgFloat},
	KindResetInterface:           {Keyword: "ResetInterface", Arg: ArgNone},
	KindInterfacePosition:        {Keyword: "InterfacePosition", Arg: ArgFloat},
	KindInterfaceAccuracyHigh:    {Keyword: "InterfaceAccuracyHigh", Arg: ArgNone},
	KindInterfaceAccuracyDefault: {Keyword: "InterfaceAccuracyDefault", Arg: ArgNone},
	KindInterfaceAccuracyLow:     {Keyword: "InterfaceAccuracyLow", Arg: ArgNone},

	KindSamplePosition:  {Keyword: "SamplePosition", Arg: ArgFloat},
	KindChooseObjective: {Keyword: "ChooseObjective", Arg: ArgFloat, DefFloat: 1.0},
	KindInvertZAxis:     {Keyword: "InvertZAxis", Arg: ArgInt},

	KindCapturePhoto:   {Keyword: "CapturePhoto", Arg: ArgQuoted, DefText: "img.tiff"},
	KindTimeStampOn:    {Keyword: "TimeStampOn", Arg: ArgNone},
	KindTimeStampOff:   {Keyword: "TimeStampOff", Arg: ArgNone},
	KindMessageOut:     {Keyword: "MessageOut", Arg: ArgQuoted, DefText: "msg"},
	KindDebugModeOn:    {Keyword: "DebugModeOn", Arg: ArgNone},
	KindDebugModeOff:   {Keyword: "DebugModeOff", Arg: ArgNone},
	KindShowParameter:  {Keyword: "ShowParameter", Arg: ArgNone},
	KindShowVar:        {Keyword: "ShowVar", Arg: ArgVarName, DefText: "$var"},
	KindSaveMessages:   {Keyword: "SaveMessages", Arg: ArgQuoted, DefText: "msg"},
	KindPause:          {Keyword: "Pause", Arg: ArgNone},
	KindZDrivePosition: {Keyword: "ZDrivePosition", Arg: ArgNone},
	KindNewStructure:   {Keyword: "NewStructure", Arg: ArgNone},

	KindManualControl: {Keyword: "ManualControl", Arg: ArgNone},
	KindReloadIni:     {Keyword: "ReloadIni", Arg: ArgNone},
	KindRecalibrate:   {Keyword: "Recalibrate", Arg: ArgNone},
}
