// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package steelsim is a co-simulation test harness for cycle accurate models of a
processor or SoC (the device under test, or DUT).

The harness drives the DUT clock and reset lines, loads a program image into
its memory, and steps it until the program signals completion by writing 1 to
a well known address. It then extracts the result buffer (the signature)
delimited by memory words 2047 and 2046 and dumps it to a text file for
comparison against a reference. Bytes written to an optional host-out address
are relayed to the console, and the whole run can be recorded to a VCD trace.

Models implement the Model interface. The bfm package provides a bus
functional model that can be used as a stand-in DUT.

*/
package steelsim
