/*
Package status tracks what a backup run did to each file.

	+-------------+
	|  Transfer   |----+
	+-------------+    |    +-------------+
	                   +--->|   Manager   |---> zerolog
	+-------------+    |    | (in memory) |
	|   Convert   |----+    +-------------+
	+-------------+

🎯 Purpose:
- Records copied, moved and converted files in the order they were handled
- Reports progress of the transfer and conversion passes
- Hashes files for optional copy verification

The Manager holds no file system state of its own. Callers read the tracked
files back with ListFiles once a run is over.
*/
package status
