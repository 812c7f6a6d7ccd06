package pointer

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	if valid {
		return &value
	}
	return nil
}

// StringCopy returns a pointer that's a copy of the provided value
func StringCopy(value *string) *string {
	if value == nil {
		return nil
	}

	return String(*value)
}

// Uint16 returns a pointer to the provided uint16 value
func Uint16(value uint16) *uint16 {
	return &value
}

// Uint16Copy returns a pointer that's a copy of the provided value
func Uint16Copy(value *uint16) *uint16 {
	if value == nil {
		return nil
	}

	return Uint16(*value)
}
