/*
Copyright 2024 Tim St. Pierre
DDRAM layout of a 20x4 HD44780
*/
package lcd2004

// Lines is the number of physical rows.
const Lines = 4

// lineWidth is how many cells one row can hold before the controller's
// address wraps into another row.
const lineWidth = 20

// lineAddr holds the DDRAM address of column 0 for each row. Rows 0 and 2
// share the first 40-byte bank and rows 1 and 3 the second, so the addresses
// are not evenly spaced.
var lineAddr = [Lines]byte{0x00, 0x40, 0x14, 0x54}

// LineAddr returns the DDRAM address of column 0 of row.
func LineAddr(row uint8) (byte, error) {
	if int(row) >= len(lineAddr) {
		return 0, ErrAddressOutOfRange
	}
	return lineAddr[row], nil
}
