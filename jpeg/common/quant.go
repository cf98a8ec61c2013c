package common

// WriteQuantTable writes one DQT segment. Values are stored in zigzag
// order; 8-bit entries are used when every value fits, 16-bit entries
// otherwise (the usual case for 12-bit data).
func WriteQuantTable(writer *Writer, id byte, table *QuantTable) error {
	wide := false
	for _, v := range table {
		if v > 255 {
			wide = true
			break
		}
	}

	var data []byte
	if wide {
		data = make([]byte, 1+2*DCTSize2)
		data[0] = 1<<4 | id
		for k := 0; k < DCTSize2; k++ {
			v := table[NaturalOrder[k]]
			data[1+2*k] = byte(v >> 8)
			data[2+2*k] = byte(v)
		}
	} else {
		data = make([]byte, 1+DCTSize2)
		data[0] = id
		for k := 0; k < DCTSize2; k++ {
			data[1+k] = byte(table[NaturalOrder[k]])
		}
	}
	return writer.WriteSegment(MarkerDQT, data)
}

// ParseQuantTables parses the payload of a DQT segment, which may
// define several tables, calling set for each one.
func ParseQuantTables(data []byte, set func(id byte, table *QuantTable) error) error {
	for len(data) > 0 {
		prec := data[0] >> 4
		id := data[0] & 0x0F
		if prec > 1 || id >= NumQuantTables {
			return ErrInvalidDQT
		}

		table := &QuantTable{}
		if prec == 1 {
			if len(data) < 1+2*DCTSize2 {
				return ErrInvalidDQT
			}
			for k := 0; k < DCTSize2; k++ {
				table[NaturalOrder[k]] = uint16(data[1+2*k])<<8 | uint16(data[2+2*k])
			}
			data = data[1+2*DCTSize2:]
		} else {
			if len(data) < 1+DCTSize2 {
				return ErrInvalidDQT
			}
			for k := 0; k < DCTSize2; k++ {
				table[NaturalOrder[k]] = uint16(data[1+k])
			}
			data = data[1+DCTSize2:]
		}

		if err := set(id, table); err != nil {
			return err
		}
	}
	return nil
}
