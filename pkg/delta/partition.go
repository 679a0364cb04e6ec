package delta

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/datazip-inc/deltalake/types"
)

// PartitionValue is one decoded partition column of a data file. Value is nil
// for a null partition.
type PartitionValue struct {
	Column types.NameAndType `json:"column"`
	Value  any               `json:"value"`
}

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 86400
)

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

// Date32 covers 1900-01-01 through 2299-12-31.
const (
	minDate32DayNum = -25567
	maxDate32DayNum = 120529
)

// DecodePartitionValue converts the string form of a partition value into a
// typed value of dataType. Nullable types decode against their nested type.
func DecodePartitionValue(value string, dataType *types.DataType) (any, error) {
	target := dataType.Unwrap()

	switch target.Kind {
	case types.KindString, types.KindFixedString:
		return value, nil
	case types.KindInt8:
		v, err := strconv.ParseInt(value, 10, 8)
		return int8(v), numericError(value, target, err)
	case types.KindInt16:
		v, err := strconv.ParseInt(value, 10, 16)
		return int16(v), numericError(value, target, err)
	case types.KindInt32:
		v, err := strconv.ParseInt(value, 10, 32)
		return int32(v), numericError(value, target, err)
	case types.KindInt64:
		v, err := strconv.ParseInt(value, 10, 64)
		return v, numericError(value, target, err)
	case types.KindUInt8:
		v, err := strconv.ParseUint(value, 10, 8)
		return uint8(v), numericError(value, target, err)
	case types.KindUInt16:
		v, err := strconv.ParseUint(value, 10, 16)
		return uint16(v), numericError(value, target, err)
	case types.KindUInt32:
		v, err := strconv.ParseUint(value, 10, 32)
		return uint32(v), numericError(value, target, err)
	case types.KindUInt64:
		v, err := strconv.ParseUint(value, 10, 64)
		return v, numericError(value, target, err)
	case types.KindFloat32:
		v, err := strconv.ParseFloat(value, 32)
		return float32(v), numericError(value, target, err)
	case types.KindFloat64:
		v, err := strconv.ParseFloat(value, 64)
		return v, numericError(value, target, err)
	case types.KindDate:
		days, err := parseDayNum(value)
		if err != nil {
			return nil, err
		}
		if days < 0 || days > math.MaxUint16 {
			return nil, fmt.Errorf("%w: date %s is out of range for %s", ErrInvalidArgument, value, target)
		}
		return uint16(days), nil
	case types.KindDate32:
		days, err := parseDayNum(value)
		if err != nil {
			return nil, err
		}
		if days < minDate32DayNum || days > maxDate32DayNum {
			return nil, fmt.Errorf("%w: date %s is out of range for %s", ErrInvalidArgument, value, target)
		}
		return int32(days), nil
	case types.KindDateTime64:
		return parseDateTime64(value, target)
	default:
		return nil, fmt.Errorf("%w: unsupported delta lake type for partition value: %s", ErrUnsupported, target)
	}
}

func numericError(value string, dataType *types.DataType, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: cannot parse %q as %s: %s", ErrInvalidArgument, value, dataType, err)
}

func parseDayNum(value string) (int64, error) {
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse %q as date: %s", ErrInvalidArgument, value, err)
	}
	return parsed.Unix() / secondsPerDay, nil
}

// parseDateTime64 returns the number of 10^-scale second ticks since the epoch.
func parseDateTime64(value string, dataType *types.DataType) (int64, error) {
	location := time.UTC
	if dataType.TimeZone != "" {
		loaded, err := time.LoadLocation(dataType.TimeZone)
		if err != nil {
			return 0, fmt.Errorf("%w: unknown time zone %s: %s", ErrInvalidArgument, dataType.TimeZone, err)
		}
		location = loaded
	}

	var parsed time.Time
	var err error
	for _, layout := range dateTimeLayouts {
		parsed, err = time.ParseInLocation(layout, value, location)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse %q as %s: %s", ErrInvalidArgument, value, dataType, err)
	}

	scale := dataType.Scale
	if scale < 0 || scale > 9 {
		return 0, fmt.Errorf("%w: unsupported datetime precision %d", ErrUnsupported, scale)
	}
	multiplier := int64(math.Pow10(scale))
	divisor := int64(math.Pow10(9 - scale))
	return parsed.Unix()*multiplier + int64(parsed.Nanosecond())/divisor, nil
}
