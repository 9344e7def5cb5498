// Package testdef finds the specs to be tested and parses their tests files.
//
// A specs directory contains one subdirectory per spec. A subdirectory may contain a
// tests.yml file of this form:
//
//	tests:
//	  <testName>:
//	    inputs:
//	      <inputName>: <any value>
//	    expectations:
//	      isAccepted: true      # optional, default true
//	      finalStatus: finished # optional, default "finished"
//	      outputs:              # optional
//	        - id: <output ID, or a path starting with "/">
//	          mimeType: <string>
//	          sizeInBytes: <int>
//	          content: <exact text>
//	          contains: [<substring>, ...]
//	          json: <any value>
//	          metadata: {<key>: <value>}
package testdef
