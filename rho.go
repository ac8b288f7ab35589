package colm

// rho mixes x into the chaining state st and returns the transformed
// block together with the next state.
func rho(x, st block) (y, next block) {
	next = xored(dbl(st), x)
	y = xored(next, st)
	return y, next
}

// rhoInverse undoes rho: given y and the same prior state it recovers x
// and the same next state rho produced.
func rhoInverse(y, st block) (x, next block) {
	w := dbl(st)
	next = xored(st, y)
	x = xored(w, next)
	return x, next
}

// rho3 applies rho to x[0], x[1] and x[2] in that order. states[j] is the
// chaining state after x[j]; states[2] is the state to continue with.
func rho3(x [3]block, st block) (y, states [3]block) {
	for j := range x {
		y[j], st = rho(x[j], st)
		states[j] = st
	}
	return y, states
}

// rhoInverse3 is the inverse of rho3.
func rhoInverse3(y [3]block, st block) (x, states [3]block) {
	for j := range y {
		x[j], st = rhoInverse(y[j], st)
		states[j] = st
	}
	return x, states
}
