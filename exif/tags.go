package exif

// Type is a TIFF field type.
type Type uint16

const (
	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
)

// Size in bytes of one value of each type.
var typeSize = map[Type]uint32{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
}

// Frequently used tag ids.
const (
	TagOrientation       uint16 = 0x0112
	TagDateTime          uint16 = 0x0132
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004

	tagExifPointer    uint16 = 0x8769
	tagGPSPointer     uint16 = 0x8825
	tagInteropPointer uint16 = 0xa005
	tagThumbOffset    uint16 = 0x0201
	tagThumbLength    uint16 = 0x0202
)

// TagSpec describes a dictionary entry.
type TagSpec struct {
	Name string
	Type Type
}

// TagName returns the dictionary name of tag in ifd, or "" if unknown.
func TagName(ifd IFD, tag uint16) string {
	return lookupTag(ifd, tag).Name
}

func lookupTag(ifd IFD, tag uint16) TagSpec {
	switch ifd {
	case IFD0, IFD1:
		return imageTags[tag]
	case IFDExif:
		return exifTags[tag]
	case IFDGPS:
		return gpsTags[tag]
	case IFDInterop:
		return interopTags[tag]
	}
	return TagSpec{}
}

// imageTags covers IFD0 and IFD1.
var imageTags = map[uint16]TagSpec{
	0x000b: {"ProcessingSoftware", TypeASCII},
	0x00fe: {"NewSubfileType", TypeLong},
	0x00ff: {"SubfileType", TypeShort},
	0x0100: {"ImageWidth", TypeLong},
	0x0101: {"ImageLength", TypeLong},
	0x0102: {"BitsPerSample", TypeShort},
	0x0103: {"Compression", TypeShort},
	0x0106: {"PhotometricInterpretation", TypeShort},
	0x0107: {"Threshholding", TypeShort},
	0x0108: {"CellWidth", TypeShort},
	0x0109: {"CellLength", TypeShort},
	0x010a: {"FillOrder", TypeShort},
	0x010d: {"DocumentName", TypeASCII},
	0x010e: {"ImageDescription", TypeASCII},
	0x010f: {"Make", TypeASCII},
	0x0110: {"Model", TypeASCII},
	0x0111: {"StripOffsets", TypeLong},
	0x0112: {"Orientation", TypeShort},
	0x0115: {"SamplesPerPixel", TypeShort},
	0x0116: {"RowsPerStrip", TypeLong},
	0x0117: {"StripByteCounts", TypeLong},
	0x011a: {"XResolution", TypeRational},
	0x011b: {"YResolution", TypeRational},
	0x011c: {"PlanarConfiguration", TypeShort},
	0x0122: {"GrayResponseUnit", TypeShort},
	0x0123: {"GrayResponseCurve", TypeShort},
	0x0124: {"T4Options", TypeLong},
	0x0125: {"T6Options", TypeLong},
	0x0128: {"ResolutionUnit", TypeShort},
	0x012d: {"TransferFunction", TypeShort},
	0x0131: {"Software", TypeASCII},
	0x0132: {"DateTime", TypeASCII},
	0x013b: {"Artist", TypeASCII},
	0x013c: {"HostComputer", TypeASCII},
	0x013d: {"Predictor", TypeShort},
	0x013e: {"WhitePoint", TypeRational},
	0x013f: {"PrimaryChromaticities", TypeRational},
	0x0140: {"ColorMap", TypeShort},
	0x0141: {"HalftoneHints", TypeShort},
	0x0142: {"TileWidth", TypeShort},
	0x0143: {"TileLength", TypeShort},
	0x0144: {"TileOffsets", TypeShort},
	0x0145: {"TileByteCounts", TypeShort},
	0x014a: {"SubIFDs", TypeLong},
	0x014c: {"InkSet", TypeShort},
	0x014d: {"InkNames", TypeASCII},
	0x014e: {"NumberOfInks", TypeShort},
	0x0150: {"DotRange", TypeByte},
	0x0151: {"TargetPrinter", TypeASCII},
	0x0152: {"ExtraSamples", TypeShort},
	0x0153: {"SampleFormat", TypeShort},
	0x0154: {"SMinSampleValue", TypeShort},
	0x0155: {"SMaxSampleValue", TypeShort},
	0x0156: {"TransferRange", TypeShort},
	0x0157: {"ClipPath", TypeByte},
	0x015a: {"Indexed", TypeShort},
	0x015b: {"JPEGTables", TypeUndefined},
	0x015f: {"OPIProxy", TypeShort},
	0x0200: {"JPEGProc", TypeLong},
	0x0201: {"JPEGInterchangeFormat", TypeLong},
	0x0202: {"JPEGInterchangeFormatLength", TypeLong},
	0x0203: {"JPEGRestartInterval", TypeShort},
	0x0211: {"YCbCrCoefficients", TypeRational},
	0x0212: {"YCbCrSubSampling", TypeShort},
	0x0213: {"YCbCrPositioning", TypeShort},
	0x0214: {"ReferenceBlackWhite", TypeRational},
	0x02bc: {"XMLPacket", TypeByte},
	0x4746: {"Rating", TypeShort},
	0x4749: {"RatingPercent", TypeShort},
	0x800d: {"ImageID", TypeASCII},
	0x828d: {"CFARepeatPatternDim", TypeShort},
	0x828e: {"CFAPattern", TypeByte},
	0x828f: {"BatteryLevel", TypeRational},
	0x8298: {"Copyright", TypeASCII},
	0x829a: {"ExposureTime", TypeRational},
	0x83bb: {"IPTCNAA", TypeLong},
	0x8649: {"ImageResources", TypeByte},
	0x8769: {"ExifTag", TypeLong},
	0x8773: {"InterColorProfile", TypeUndefined},
	0x8822: {"ExposureProgram", TypeShort},
	0x8825: {"GPSTag", TypeLong},
	0x9c9b: {"XPTitle", TypeByte},
	0x9c9c: {"XPComment", TypeByte},
	0x9c9d: {"XPAuthor", TypeByte},
	0x9c9e: {"XPKeywords", TypeByte},
	0x9c9f: {"XPSubject", TypeByte},
	0xc4a5: {"PrintImageMatching", TypeUndefined},
	0xc612: {"DNGVersion", TypeByte},
	0xc614: {"UniqueCameraModel", TypeASCII},
}

var exifTags = map[uint16]TagSpec{
	0x829a: {"ExposureTime", TypeRational},
	0x829d: {"FNumber", TypeRational},
	0x8822: {"ExposureProgram", TypeShort},
	0x8824: {"SpectralSensitivity", TypeASCII},
	0x8827: {"ISOSpeedRatings", TypeShort},
	0x8828: {"OECF", TypeUndefined},
	0x8830: {"SensitivityType", TypeShort},
	0x8831: {"StandardOutputSensitivity", TypeLong},
	0x8832: {"RecommendedExposureIndex", TypeLong},
	0x8833: {"ISOSpeed", TypeLong},
	0x8834: {"ISOSpeedLatitudeyyy", TypeLong},
	0x8835: {"ISOSpeedLatitudezzz", TypeLong},
	0x9000: {"ExifVersion", TypeUndefined},
	0x9003: {"DateTimeOriginal", TypeASCII},
	0x9004: {"DateTimeDigitized", TypeASCII},
	0x9010: {"OffsetTime", TypeASCII},
	0x9011: {"OffsetTimeOriginal", TypeASCII},
	0x9012: {"OffsetTimeDigitized", TypeASCII},
	0x9101: {"ComponentsConfiguration", TypeUndefined},
	0x9102: {"CompressedBitsPerPixel", TypeRational},
	0x9201: {"ShutterSpeedValue", TypeSRational},
	0x9202: {"ApertureValue", TypeRational},
	0x9203: {"BrightnessValue", TypeSRational},
	0x9204: {"ExposureBiasValue", TypeSRational},
	0x9205: {"MaxApertureValue", TypeRational},
	0x9206: {"SubjectDistance", TypeRational},
	0x9207: {"MeteringMode", TypeShort},
	0x9208: {"LightSource", TypeShort},
	0x9209: {"Flash", TypeShort},
	0x920a: {"FocalLength", TypeRational},
	0x9214: {"SubjectArea", TypeShort},
	0x927c: {"MakerNote", TypeUndefined},
	0x9286: {"UserComment", TypeUndefined},
	0x9290: {"SubSecTime", TypeASCII},
	0x9291: {"SubSecTimeOriginal", TypeASCII},
	0x9292: {"SubSecTimeDigitized", TypeASCII},
	0x9400: {"Temperature", TypeSRational},
	0x9401: {"Humidity", TypeRational},
	0x9402: {"Pressure", TypeRational},
	0x9403: {"WaterDepth", TypeSRational},
	0x9404: {"Acceleration", TypeRational},
	0x9405: {"CameraElevationAngle", TypeSRational},
	0xa000: {"FlashpixVersion", TypeUndefined},
	0xa001: {"ColorSpace", TypeShort},
	0xa002: {"PixelXDimension", TypeLong},
	0xa003: {"PixelYDimension", TypeLong},
	0xa004: {"RelatedSoundFile", TypeASCII},
	0xa005: {"InteroperabilityTag", TypeLong},
	0xa20b: {"FlashEnergy", TypeRational},
	0xa20c: {"SpatialFrequencyResponse", TypeUndefined},
	0xa20e: {"FocalPlaneXResolution", TypeRational},
	0xa20f: {"FocalPlaneYResolution", TypeRational},
	0xa210: {"FocalPlaneResolutionUnit", TypeShort},
	0xa214: {"SubjectLocation", TypeShort},
	0xa215: {"ExposureIndex", TypeRational},
	0xa217: {"SensingMethod", TypeShort},
	0xa300: {"FileSource", TypeUndefined},
	0xa301: {"SceneType", TypeUndefined},
	0xa302: {"CFAPattern", TypeUndefined},
	0xa401: {"CustomRendered", TypeShort},
	0xa402: {"ExposureMode", TypeShort},
	0xa403: {"WhiteBalance", TypeShort},
	0xa404: {"DigitalZoomRatio", TypeRational},
	0xa405: {"FocalLengthIn35mmFilm", TypeShort},
	0xa406: {"SceneCaptureType", TypeShort},
	0xa407: {"GainControl", TypeShort},
	0xa408: {"Contrast", TypeShort},
	0xa409: {"Saturation", TypeShort},
	0xa40a: {"Sharpness", TypeShort},
	0xa40b: {"DeviceSettingDescription", TypeUndefined},
	0xa40c: {"SubjectDistanceRange", TypeShort},
	0xa420: {"ImageUniqueID", TypeASCII},
	0xa430: {"CameraOwnerName", TypeASCII},
	0xa431: {"BodySerialNumber", TypeASCII},
	0xa432: {"LensSpecification", TypeRational},
	0xa433: {"LensMake", TypeASCII},
	0xa434: {"LensModel", TypeASCII},
	0xa435: {"LensSerialNumber", TypeASCII},
	0xa500: {"Gamma", TypeRational},
}

var gpsTags = map[uint16]TagSpec{
	0x0000: {"GPSVersionID", TypeByte},
	0x0001: {"GPSLatitudeRef", TypeASCII},
	0x0002: {"GPSLatitude", TypeRational},
	0x0003: {"GPSLongitudeRef", TypeASCII},
	0x0004: {"GPSLongitude", TypeRational},
	0x0005: {"GPSAltitudeRef", TypeByte},
	0x0006: {"GPSAltitude", TypeRational},
	0x0007: {"GPSTimeStamp", TypeRational},
	0x0008: {"GPSSatellites", TypeASCII},
	0x0009: {"GPSStatus", TypeASCII},
	0x000a: {"GPSMeasureMode", TypeASCII},
	0x000b: {"GPSDOP", TypeRational},
	0x000c: {"GPSSpeedRef", TypeASCII},
	0x000d: {"GPSSpeed", TypeRational},
	0x000e: {"GPSTrackRef", TypeASCII},
	0x000f: {"GPSTrack", TypeRational},
	0x0010: {"GPSImgDirectionRef", TypeASCII},
	0x0011: {"GPSImgDirection", TypeRational},
	0x0012: {"GPSMapDatum", TypeASCII},
	0x0013: {"GPSDestLatitudeRef", TypeASCII},
	0x0014: {"GPSDestLatitude", TypeRational},
	0x0015: {"GPSDestLongitudeRef", TypeASCII},
	0x0016: {"GPSDestLongitude", TypeRational},
	0x0017: {"GPSDestBearingRef", TypeASCII},
	0x0018: {"GPSDestBearing", TypeRational},
	0x0019: {"GPSDestDistanceRef", TypeASCII},
	0x001a: {"GPSDestDistance", TypeRational},
	0x001b: {"GPSProcessingMethod", TypeUndefined},
	0x001c: {"GPSAreaInformation", TypeUndefined},
	0x001d: {"GPSDateStamp", TypeASCII},
	0x001e: {"GPSDifferential", TypeShort},
	0x001f: {"GPSHPositioningError", TypeRational},
}

var interopTags = map[uint16]TagSpec{
	0x0001: {"InteroperabilityIndex", TypeASCII},
	0x0002: {"InteroperabilityVersion", TypeUndefined},
	0x1000: {"RelatedImageFileFormat", TypeASCII},
	0x1001: {"RelatedImageWidth", TypeLong},
	0x1002: {"RelatedImageLength", TypeLong},
}
