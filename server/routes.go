package server

func (s *Server) initRoutes() {
	api := s.APIMiddleware()
	protected := append(s.APIMiddleware(), s.RequireAuth())

	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), api...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), api...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), protected...))

	s.RegisterRouteHandler("GET "+RouteObjects, ChainMiddleware(s.ListObjectsHandler(), protected...))
	s.RegisterRouteHandler("POST "+RouteObjects, ChainMiddleware(s.CreateObjectHandler(), protected...))
	s.RegisterRouteHandler("GET "+RouteObject, ChainMiddleware(s.GetObjectHandler(), protected...))
	s.RegisterRouteHandler("DELETE "+RouteObject, ChainMiddleware(s.DeleteObjectHandler(), protected...))
	s.RegisterRouteHandler("GET "+RouteNotifications, ChainMiddleware(s.ListNotificationsHandler(), protected...))

	s.RegisterRouteHandler("POST "+RouteExpireSession, ChainMiddleware(s.ExpireSessionHandler(), protected...))
}
