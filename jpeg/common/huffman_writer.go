package common

// WriteHuffmanTable writes a Huffman table to the JPEG stream
// class: 0 for DC, 1 for AC
// id: table ID (0-3)
func WriteHuffmanTable(writer *Writer, class byte, id byte, table *HuffmanTable) error {
	// Calculate total number of values
	totalValues := 0
	for _, count := range table.Bits {
		totalValues += count
	}

	// Create DHT segment data
	data := make([]byte, 1+16+totalValues)
	data[0] = (class << 4) | id // Table class and ID

	// Write bit counts (16 bytes)
	for i := 0; i < 16; i++ {
		data[1+i] = byte(table.Bits[i])
	}

	// Write symbol values
	copy(data[17:], table.Values)

	// Write DHT segment
	return writer.WriteSegment(MarkerDHT, data)
}

// ParseHuffmanTables parses the payload of a DHT segment, which may define
// several tables. It calls set(class, id, table) for each one.
func ParseHuffmanTables(data []byte, set func(class, id byte, table *HuffmanTable) error) error {
	for len(data) > 0 {
		if len(data) < 17 {
			return ErrInvalidDHT
		}
		class := data[0] >> 4
		id := data[0] & 0x0F
		if class > 1 || id >= NumHuffTables {
			return ErrInvalidDHT
		}

		table := &HuffmanTable{}
		total := 0
		for i := 0; i < 16; i++ {
			table.Bits[i] = int(data[1+i])
			total += table.Bits[i]
		}
		if total > 256 || len(data) < 17+total {
			return ErrInvalidDHT
		}
		table.Values = append([]byte(nil), data[17:17+total]...)

		if err := set(class, id, table); err != nil {
			return err
		}
		data = data[17+total:]
	}
	return nil
}
