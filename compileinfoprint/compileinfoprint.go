// compileinfoprint is imported for the side effect of logging the
// compileinfo at startup
package compileinfoprint

import "github.com/carbocation/craft/compileinfo"

func init() {
	compileinfo.Log()
}
