package imaging

// ParseQuantTables walks the JPEG segment stream and extracts the
// quantization tables from DQT segments. Returns nil when the data is
// not a JPEG or carries no tables; the caller treats that as an absent
// signal, not an error.
func ParseQuantTables(data []byte) map[int][]int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}

	tables := make(map[int][]int)
	pos := 2
	for pos+3 < len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		pos += 2

		switch {
		case marker == 0x00 || (marker >= 0xD0 && marker <= 0xD7):
			// Padding byte or restart marker: no length field.
			continue
		case marker == 0xD9 || marker == 0xDA:
			// EOI or SOS: tables only appear before the scan data.
			if len(tables) == 0 {
				return nil
			}
			return tables
		}

		if pos+1 >= len(data) {
			break
		}
		segLen := int(data[pos])<<8 | int(data[pos+1])
		if segLen < 2 || pos+segLen > len(data) {
			break
		}

		if marker == 0xDB { // DQT
			body := data[pos+2 : pos+segLen]
			for len(body) > 0 {
				precision := int(body[0] >> 4) // 0: 8-bit, 1: 16-bit entries
				id := int(body[0] & 0x0F)
				body = body[1:]

				entrySize := 1
				if precision == 1 {
					entrySize = 2
				}
				if len(body) < 64*entrySize {
					break
				}

				table := make([]int, 64)
				for i := 0; i < 64; i++ {
					if precision == 1 {
						table[i] = int(body[2*i])<<8 | int(body[2*i+1])
					} else {
						table[i] = int(body[i])
					}
				}
				tables[id] = table
				body = body[64*entrySize:]
			}
		}

		pos += segLen
	}

	if len(tables) == 0 {
		return nil
	}
	return tables
}
