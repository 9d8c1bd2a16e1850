// Package cases loads and saves hitcheck case files.
//
// A case file is YAML with a top-level "cases" list. Each case names a
// request and the status code and JSON body it is expected to return:
//
//	cases:
//	  - name: getUser
//	    request:
//	      method: GET
//	      url: ${BASE_URL}/users/123
//	    expect:
//	      status: 200
//	      body:
//	        message: Success
//	        data: {id: 123}
//
// Request fields may reference ${VAR}; references are expanded when the
// request is built, never when the file is loaded, so Save keeps them intact.
package cases
