package alignment

// defaultOrder lists the rows and columns of defaultScores. U is filled in
// from T by InitDefault.
var defaultOrder = [...]byte{
	'A', 'C', 'G', 'T', 'W', 'S', 'M', 'K', 'R', 'Y', 'B', 'D', 'H', 'V', 'N', 'X',
}

// defaultScores is a modified EDNAFULL table with no negative scores for
// a plain base against an ambiguity code covering it. Rows are the query
// base, columns the reference base. The table is not symmetric.
var defaultScores = [len(defaultOrder)][len(defaultOrder)]int8{
	//   A   C   G   T   W   S   M   K   R   Y   B   D   H   V   N   X
	{5, -4, -4, -4, 1, -4, 1, -4, 2, -4, -4, 1, 1, 1, 1, 1},         // A
	{-4, 5, -4, -4, -4, 1, 1, -4, -4, 1, 1, -4, 1, 1, 1, 1},         // C
	{-4, -4, 5, -4, -4, 1, -4, 1, 2, -4, 1, 1, -4, 1, 1, 1},         // G
	{-4, -4, -4, 5, 1, -4, -4, 1, -4, 1, 1, 1, 1, -4, 1, 1},         // T
	{1, -4, -4, 1, -1, -4, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},  // W
	{-4, 1, 1, -4, -4, -1, -2, -2, -2, -2, -1, -3, -3, -1, -1, -1},  // S
	{1, 1, -4, -4, -2, -2, -1, -4, -2, -2, -3, -3, -1, -1, -1, -1},  // M
	{-4, -4, 1, 1, -2, -2, -4, -1, -2, -2, -1, -1, -3, -3, -1, -1},  // K
	{2, -4, 2, -4, -1, -1, -1, -2, -1, -4, -3, -1, -1, -3, -1, -1},  // R
	{-4, 1, -4, -4, -2, -2, -2, -2, -4, -1, -2, -3, -1, -3, -1, -1}, // Y
	{-4, 1, 1, 1, -3, -1, -3, -1, -3, -1, -1, -2, -2, -2, -1, -1},   // B
	{1, -4, 1, 1, -1, -3, -3, -1, -1, -3, -2, -1, -2, -2, -1, -1},   // D
	{1, 1, -4, 1, -1, -3, -1, -3, -3, -1, -2, -2, -1, -2, -1, -1},   // H
	{1, 1, 1, -4, -3, -1, -1, -3, -1, -3, -2, -2, -2, -1, -1, -1},   // V
	{1, 1, 1, 1, -2, -2, -2, -2, -2, -2, -2, -2, -2, -2, -1, -1},    // N
	{1, 1, 1, 1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1},    // X
}
