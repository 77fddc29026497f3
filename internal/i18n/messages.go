package i18n

import "golang.org/x/text/language"

// English strings are the catalog keys and need no entries.
var translations = map[language.Tag]map[string]string{
	language.French: {
		"Your %s Account":                                         "Votre compte %s",
		"Error Signing In":                                        "Erreur de connexion",
		"An error has occurred, please try again.":                "Une erreur s'est produite, veuillez réessayer.",
		"Your sign in session has expired, please sign in again.": "Votre session de connexion a expiré, veuillez vous reconnecter.",
		"We could not sign you in with %s.":                       "Impossible de vous connecter avec %s.",
		"Sign in with %s":                                         "Se connecter avec %s",
		"Signed in as":                                            "Connecté en tant que",
		"Create your account":                                     "Créez votre compte",
		"Name":                                                    "Nom",
		"Email":                                                   "E-mail",
		"Password":                                                "Mot de passe",
		"Connect":                                                 "Connecter",
		"Try again":                                               "Réessayer",
		"Name is required.":                                       "Le nom est obligatoire.",
		"Enter a valid email address.":                            "Saisissez une adresse e-mail valide.",
		"Password must be at least %d characters.":                "Le mot de passe doit contenir au moins %d caractères.",
		"You must agree to the terms of service.":                 "Vous devez accepter les conditions d'utilisation.",
		"That email is already in use.":                           "Cette adresse e-mail est déjà utilisée.",
		"This account is already connected.":                      "Ce compte est déjà connecté.",
		"I agree to the terms of service":                         "J'accepte les conditions d'utilisation",
	},
	language.Spanish: {
		"Your %s Account":                                         "Tu cuenta de %s",
		"Error Signing In":                                        "Error al iniciar sesión",
		"An error has occurred, please try again.":                "Ha ocurrido un error, inténtalo de nuevo.",
		"Your sign in session has expired, please sign in again.": "Tu sesión de inicio ha expirado, vuelve a iniciar sesión.",
		"We could not sign you in with %s.":                       "No pudimos iniciar tu sesión con %s.",
		"Sign in with %s":                                         "Iniciar sesión con %s",
		"Signed in as":                                            "Sesión iniciada como",
		"Create your account":                                     "Crea tu cuenta",
		"Name":                                                    "Nombre",
		"Email":                                                   "Correo electrónico",
		"Password":                                                "Contraseña",
		"Connect":                                                 "Conectar",
		"Try again":                                               "Intentar de nuevo",
		"Name is required.":                                       "El nombre es obligatorio.",
		"Enter a valid email address.":                            "Introduce un correo electrónico válido.",
		"Password must be at least %d characters.":                "La contraseña debe tener al menos %d caracteres.",
		"You must agree to the terms of service.":                 "Debes aceptar los términos del servicio.",
		"That email is already in use.":                           "Ese correo electrónico ya está en uso.",
		"This account is already connected.":                      "Esta cuenta ya está conectada.",
		"I agree to the terms of service":                         "Acepto los términos del servicio",
	},
}
